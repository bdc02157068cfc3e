package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

// License scores.
const (
	licenseCompatible   = 1.0
	licenseUnclear      = 0.5
	licenseIncompatible = 0.0
)

// DefaultCompatibleLicenses are permissive licenses safe for reuse.
func DefaultCompatibleLicenses() []string {
	return []string{
		"apache-2.0", "mit", "bsd-2-clause", "bsd-3-clause", "lgpl-2.1",
		"lgpl-3.0", "mpl-2.0", "isc", "unlicense", "cc0-1.0", "cc-by-4.0",
		"bsl-1.0", "zlib",
	}
}

// DefaultIncompatibleLicenses are copyleft, proprietary or non-commercial.
func DefaultIncompatibleLicenses() []string {
	return []string{
		"gpl-2.0", "gpl-3.0", "agpl-3.0", "proprietary", "cc-by-nc-4.0",
		"cc-by-nc-sa-4.0", "cc-by-nc-nd-4.0",
	}
}

var licenseAliases = map[string]string{ //nolint:gochecknoglobals // alias table
	"apache":             "apache-2.0",
	"apache-2":           "apache-2.0",
	"apache-license-2.0": "apache-2.0",
	"apache2":            "apache-2.0",
	"apache2.0":          "apache-2.0",
	"mit-license":        "mit",
	"bsd":                "bsd-3-clause",
	"bsd-3":              "bsd-3-clause",
	"bsd-2":              "bsd-2-clause",
	"gpl-3":              "gpl-3.0",
	"gplv3":              "gpl-3.0",
	"gpl3":               "gpl-3.0",
	"gpl-2":              "gpl-2.0",
	"gplv2":              "gpl-2.0",
	"agpl-3":             "agpl-3.0",
	"agplv3":             "agpl-3.0",
	"lgpl-2.1-only":      "lgpl-2.1",
	"gpl-3.0-only":       "gpl-3.0",
	"gpl-3.0-or-later":   "gpl-3.0",
	"mpl-2":              "mpl-2.0",
}

var readmeLicense = regexp.MustCompile(`(?i)(?:licensed under|license)\s*[:\-]?\s*(?:the\s+)?([A-Za-z0-9.\-+]+(?:[ _][0-9][0-9.]*)?)`)

// NormalizeLicense lowercases an identifier, turns spaces and underscores
// into dashes and resolves common aliases.
func NormalizeLicense(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.NewReplacer(" ", "-", "_", "-").Replace(id)
	id = strings.Trim(id, "-.")
	if alias, ok := licenseAliases[id]; ok {
		return alias
	}
	return id
}

// LicensePolicy classifies normalized license identifiers.
type LicensePolicy struct {
	compatible   map[string]struct{}
	incompatible map[string]struct{}
}

// NewLicensePolicy builds a policy. Empty lists fall back to the defaults.
func NewLicensePolicy(compatible, incompatible []string) LicensePolicy {
	if len(compatible) == 0 {
		compatible = DefaultCompatibleLicenses()
	}
	if len(incompatible) == 0 {
		incompatible = DefaultIncompatibleLicenses()
	}
	return LicensePolicy{
		compatible:   toSet(compatible),
		incompatible: toSet(incompatible),
	}
}

// Score returns 1 for allowed, 0 for denied or missing and 0.5 otherwise.
func (p LicensePolicy) Score(id string) float64 {
	id = NormalizeLicense(id)
	if id == "" || id == "none" {
		return licenseIncompatible
	}
	if _, ok := p.incompatible[id]; ok {
		return licenseIncompatible
	}
	if _, ok := p.compatible[id]; ok {
		return licenseCompatible
	}
	return licenseUnclear
}

// License scores the descriptor's license, falling back to a license
// mention in the README when the field is empty or unclear.
func License(p LicensePolicy) Func {
	return func(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
		score := p.Score(d.License)
		if (strings.TrimSpace(d.License) == "" || score == licenseUnclear) && d.Readme != "" {
			if m := readmeLicense.FindStringSubmatch(d.Readme); m != nil {
				if s := p.Score(m[1]); s != licenseUnclear || d.License == "" {
					score = s
				}
			}
		}
		return value(score), nil
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if n := NormalizeLicense(id); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
