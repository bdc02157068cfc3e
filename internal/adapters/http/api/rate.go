package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/trustscore/internal/adapters/ndjson"
	"github.com/okian/trustscore/pkg/logger"
)

const maxDescriptorBytes = 8 << 20

// RateHandler scores one descriptor per request.
type RateHandler struct {
	scorer Scorer
	logger logger.Logger
}

// NewRateHandler creates a new rate handler.
func NewRateHandler(scorer Scorer, l logger.Logger) *RateHandler {
	return &RateHandler{scorer: scorer, logger: l}
}

// HandleRate handles POST /rate. The body is a RepositoryDescriptor; the
// response is the same single NDJSON line the batch mode writes.
func (h *RateHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rate"
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDescriptorBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	// Mistyped fields degrade to zero like batch input; a body that is not
	// JSON at all is the caller's mistake.
	d, err := ndjson.Decode(body)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || len(bytes.TrimSpace(body)) == 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
			return
		}
		h.logger.Warn(ctx, "degraded descriptor",
			logger.String("request_id", w.Header().Get(requestIDHeader)),
			logger.Error(err),
		)
	}
	if strings.TrimSpace(d.Name) == "" && strings.TrimSpace(d.URL) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing name or url", op, ErrBadRequest))
		return
	}

	rec, err := h.scorer.Score(ctx, &d)
	if err != nil {
		status, code := http.StatusInternalServerError, "score_failed"
		if ctx.Err() != nil {
			status, code = http.StatusServiceUnavailable, "timeout"
		}
		h.logger.Warn(ctx, "rate failed",
			logger.String("name", d.DisplayName()),
			logger.String("request_id", w.Header().Get(requestIDHeader)),
			logger.Error(err),
		)
		writeError(w, status, code, fmt.Errorf("%s: %w: %w", op, ErrScore, err))
		return
	}

	line, err := ndjson.Marshal(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode_failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(line, '\n'))
}
