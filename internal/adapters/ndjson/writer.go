// Package ndjson encodes score records as newline-delimited JSON and reads
// repository descriptors from NDJSON input.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/internal/domain/registry"
)

// Writer emits one line per record. It is safe for concurrent use; lines
// never interleave and each is flushed before Write returns.
type Writer struct {
	mu  sync.Mutex
	out *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

// Write encodes rec and writes it as a single line.
func (w *Writer) Write(rec model.ScoreRecord) error {
	line, err := Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := w.out.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Marshal encodes rec with a fixed field order: name, category, net_score,
// net_score_latency, then each metric and its _latency in registry order.
// Latencies are integer milliseconds.
func Marshal(rec model.ScoreRecord) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	if err := writeString(&b, "name", rec.Name); err != nil {
		return nil, err
	}
	b.WriteByte(',')
	if err := writeString(&b, "category", rec.Category); err != nil {
		return nil, err
	}
	b.WriteByte(',')
	writeFloat(&b, "net_score", rec.NetScore)
	b.WriteByte(',')
	writeLatency(&b, "net_score_latency", rec.NetScoreLatency)

	for _, m := range rec.Metrics {
		b.WriteByte(',')
		if m.Targets != nil || m.Name == registry.SizeScore {
			writeTargets(&b, m.Name, m.Targets)
		} else {
			writeFloat(&b, m.Name, m.Value)
		}
		b.WriteByte(',')
		writeLatency(&b, m.Name+"_latency", m.Latency)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeKey(b *bytes.Buffer, key string) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":`)
}

func writeString(b *bytes.Buffer, key, v string) error {
	enc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, key, err)
	}
	writeKey(b, key)
	b.Write(enc)
	return nil
}

func writeFloat(b *bytes.Buffer, key string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	writeKey(b, key)
	b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

func writeLatency(b *bytes.Buffer, key string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	writeKey(b, key)
	b.WriteString(strconv.FormatInt(d.Milliseconds(), 10))
}

// writeTargets writes a target object in the fixed target order; missing
// targets are written as 0.
func writeTargets(b *bytes.Buffer, key string, targets map[string]float64) {
	writeKey(b, key)
	b.WriteByte('{')
	for i, t := range model.SizeTargets {
		if i > 0 {
			b.WriteByte(',')
		}
		writeFloat(b, t, targets[t])
	}
	b.WriteByte('}')
}
