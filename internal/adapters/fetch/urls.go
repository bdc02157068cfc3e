// Package fetch resolves registry URLs into repository descriptors by
// querying the HuggingFace Hub and GitHub.
package fetch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

// Target is one line of a URL file.
type Target struct {
	Seq        int
	CodeURL    string
	DatasetURL string
	ModelURL   string
}

// ParseURLs reads `code_url,dataset_url,model_url` lines. Blank fields are
// allowed, blank lines and lines starting with # are skipped. A line with
// fewer fields is aligned to the right, so a bare URL is a model URL.
func ParseURLs(r io.Reader) ([]Target, error) {
	var out []Target
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		for len(parts) < 3 {
			parts = append([]string{""}, parts...)
		}
		n := len(parts)
		t := Target{
			Seq:        len(out),
			CodeURL:    parts[n-3],
			DatasetURL: parts[n-2],
			ModelURL:   parts[n-1],
		}
		if t.ModelURL == "" && t.CodeURL == "" && t.DatasetURL == "" {
			continue
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadURLs, err)
	}
	return out, nil
}

// HFRef identifies a HuggingFace Hub repository.
type HFRef struct {
	ID       string
	Revision string
	Kind     model.SourceKind
}

// reserved first path segments that are not organisations.
var hfReserved = map[string]bool{ //nolint:gochecknoglobals // lookup table
	"spaces": true, "models": true, "docs": true, "api": true,
}

// ParseHF normalizes HuggingFace URLs such as
//
//	https://huggingface.co/org/name
//	https://huggingface.co/org/name/tree/main
//	https://huggingface.co/org/name/resolve/main/pytorch_model.bin
//	huggingface.co/datasets/org/name
//
// into a repository id and optional revision.
func ParseHF(raw string) (HFRef, error) {
	return parseHF(raw, "")
}

// parseHF also accepts extraHost, the host of a self-hosted Hub mirror.
func parseHF(raw, extraHost string) (HFRef, error) {
	u, err := parseLoose(raw)
	if err != nil {
		return HFRef{}, fmt.Errorf("%w: %q", ErrNotHuggingFace, raw)
	}
	host := strings.ToLower(u.Host)
	if !strings.HasSuffix(strings.ToLower(u.Hostname()), "huggingface.co") && (extraHost == "" || host != extraHost) {
		return HFRef{}, fmt.Errorf("%w: %q", ErrNotHuggingFace, raw)
	}
	parts := segments(u.Path)
	ref := HFRef{Kind: model.KindModel}
	if len(parts) > 0 && parts[0] == "datasets" {
		ref.Kind = model.KindDataset
		parts = parts[1:]
	}
	if len(parts) == 0 || hfReserved[parts[0]] {
		return HFRef{}, fmt.Errorf("%w: %q", ErrNotHuggingFace, raw)
	}

	// Legacy single-segment ids (gpt2) are valid model ids.
	if len(parts) == 1 || parts[1] == "tree" || parts[1] == "resolve" || parts[1] == "blob" {
		ref.ID = parts[0]
		ref.Revision = revisionAt(parts, 1)
		return ref, nil
	}
	ref.ID = parts[0] + "/" + parts[1]
	ref.Revision = revisionAt(parts, 2)
	return ref, nil
}

func revisionAt(parts []string, i int) string {
	if len(parts) > i+1 {
		switch parts[i] {
		case "tree", "resolve", "blob":
			return parts[i+1]
		}
	}
	return ""
}

// ParseGitHub returns owner and repository of a github.com URL.
func ParseGitHub(raw string) (owner, repo string, err error) {
	u, err := parseLoose(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrNotGitHub, raw)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	parts := segments(u.Path)
	if host != "github.com" || len(parts) < 2 {
		return "", "", fmt.Errorf("%w: %q", ErrNotGitHub, raw)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func parseLoose(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return url.Parse(s)
}

func segments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
