package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	sourceHF        = "huggingface"
	defaultRevision = "main"
	maxReadmeBytes  = 1 << 20
)

// HF is a minimal HuggingFace Hub REST client.
type HF struct {
	endpoint string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewHF creates a Hub client for endpoint (https://huggingface.co by
// default). A nil limiter means no client-side rate limit.
func NewHF(endpoint, token string, limiter *rate.Limiter) *HF {
	if endpoint == "" {
		endpoint = "https://huggingface.co"
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &HF{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  limiter,
	}
}

// Ref parses a repository URL on the public Hub or on this client's
// endpoint.
func (h *HF) Ref(raw string) (HFRef, error) {
	host := ""
	if u, err := url.Parse(h.endpoint); err == nil {
		host = strings.ToLower(u.Host)
	}
	return parseHF(raw, host)
}

// stringList decodes either a JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != "" {
			*l = stringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type hfSibling struct {
	RFilename string `json:"rfilename"`
	Size      int64  `json:"size"`
	LFS       *struct {
		Size int64 `json:"size"`
	} `json:"lfs"`
}

func (s hfSibling) bytes() int64 {
	if s.LFS != nil && s.LFS.Size > 0 {
		return s.LFS.Size
	}
	return s.Size
}

type hfMetric struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type hfResult struct {
	Task struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"task"`
	Dataset struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"dataset"`
	Metrics []hfMetric `json:"metrics"`
}

type hfCard struct {
	License    stringList `json:"license"`
	Datasets   stringList `json:"datasets"`
	ModelIndex []struct {
		Name    string     `json:"name"`
		Results []hfResult `json:"results"`
	} `json:"model-index"`
	Configs        []json.RawMessage `json:"configs"`
	Viewer         *bool             `json:"viewer"`
	CodeRepository string            `json:"code_repository"`
	Repository     string            `json:"repository"`
}

// hfInfo is the subset of /api/models and /api/datasets responses we use.
type hfInfo struct {
	ID          string      `json:"id"`
	Downloads   int64       `json:"downloads"`
	Likes       int64       `json:"likes"`
	Tags        []string    `json:"tags"`
	LibraryName string      `json:"library_name"`
	CardData    *hfCard     `json:"cardData"`
	Siblings    []hfSibling `json:"siblings"`
	Spaces      []string    `json:"spaces"`
}

func (i hfInfo) card() hfCard {
	if i.CardData == nil {
		return hfCard{}
	}
	return *i.CardData
}

// license returns the card license, falling back to a license:<id> tag.
func (i hfInfo) license() string {
	if c := i.card(); len(c.License) > 0 {
		return c.License[0]
	}
	for _, t := range i.Tags {
		if id, ok := strings.CutPrefix(t, "license:"); ok {
			return id
		}
	}
	return ""
}

// githubURL looks for a linked code repository in card metadata and tags.
func (i hfInfo) githubURL() string {
	c := i.card()
	for _, u := range []string{c.CodeRepository, c.Repository} {
		if strings.Contains(u, "github.com") {
			return u
		}
	}
	for _, t := range i.Tags {
		if strings.Contains(t, "github.com") {
			return t
		}
	}
	return ""
}

// Model fetches model metadata including per-file sizes.
func (h *HF) Model(ctx context.Context, ref HFRef) (hfInfo, error) {
	path := "/api/models/" + ref.ID
	if ref.Revision != "" {
		path += "/revision/" + url.PathEscape(ref.Revision)
	}
	var info hfInfo
	err := h.getJSON(ctx, path+"?blobs=true", &info)
	return info, err
}

// Dataset fetches dataset metadata.
func (h *HF) Dataset(ctx context.Context, id string) (hfInfo, error) {
	var info hfInfo
	err := h.getJSON(ctx, "/api/datasets/"+id, &info)
	return info, err
}

// Readme returns the raw README of a repository, or "" when it has none.
func (h *HF) Readme(ctx context.Context, ref HFRef) (string, error) {
	rev := ref.Revision
	if rev == "" {
		rev = defaultRevision
	}
	prefix := "/"
	if ref.Kind == model.KindDataset {
		prefix = "/datasets/"
	}
	body, err := h.get(ctx, prefix+ref.ID+"/raw/"+url.PathEscape(rev)+"/README.md")
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()
	b, err := io.ReadAll(io.LimitReader(body, maxReadmeBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(b), nil
}

func (h *HF) getJSON(ctx context.Context, path string, v any) error {
	body, err := h.get(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

func (h *HF) get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	outcome := "error"
	defer func() { metrics.RecordFetch(sourceHF, outcome, metrics.Millis(time.Since(start))) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		outcome = "not_found"
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, path, strconv.Itoa(resp.StatusCode))
	}
	outcome = "ok"
	return resp.Body, nil
}

// metricValue converts a model-index value, which may be a number or a
// numeric string, to float64.
func metricValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
