package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/trustscore/internal/domain/model"
)

// Decode parses one descriptor leniently. A field of the wrong type is left
// at its zero value while the other fields are kept; a value that is not JSON
// at all yields an empty descriptor. The descriptor is usable either way and
// the returned error, wrapping ErrDecode, only reports the defect.
func Decode(b []byte) (model.RepositoryDescriptor, error) {
	var d model.RepositoryDescriptor
	err := json.Unmarshal(b, &d)
	if err == nil {
		return d, nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		// encoding/json finishes the remaining fields after a type mismatch.
		return d, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return model.RepositoryDescriptor{}, fmt.Errorf("%w: %w", ErrDecode, err)
}

// ReadDescriptors reads one descriptor per line from r and calls fn for each
// non-blank line, in input order, with the 1-based line number. Lines that do
// not decode cleanly are still passed on, degraded as Decode describes, with
// the decode error; a descriptor left without name or url is named after its
// line. Only read failures and errors returned by fn stop the loop.
func ReadDescriptors(ctx context.Context, r io.Reader, fn func(line int, d model.RepositoryDescriptor, err error) error) error {
	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("%w: line %d: %w", ErrRead, n, readErr)
		}
		if b = bytes.TrimSpace(b); len(b) > 0 {
			d, err := Decode(b)
			if err != nil {
				err = fmt.Errorf("line %d: %w", n, err)
				if d.Name == "" && d.URL == "" {
					d.Name = fmt.Sprintf("line-%d", n)
				}
			}
			if err := fn(n, d, err); err != nil {
				return err
			}
		}
		if readErr != nil {
			return nil
		}
	}
}
