package extract

import (
	"context"
	"path"
	"strings"

	"github.com/okian/trustscore/internal/domain/model"
)

const (
	depsBase       = 0.3
	sourceWeight   = 0.7
	noDepsCeiling  = 0.5
	defaultLangKey = "python"
)

type languageProfile struct {
	sources []string
	deps    []string
}

var languages = map[string]languageProfile{ //nolint:gochecknoglobals // language table
	"python": {
		sources: []string{".py"},
		deps:    []string{"requirements.txt", "pyproject.toml", "setup.py", "setup.cfg", "pipfile", "environment.yml", "config.json"},
	},
	"go": {
		sources: []string{".go"},
		deps:    []string{"go.mod"},
	},
	"javascript": {
		sources: []string{".js", ".jsx", ".mjs", ".ts", ".tsx"},
		deps:    []string{"package.json"},
	},
	"rust": {
		sources: []string{".rs"},
		deps:    []string{"cargo.toml"},
	},
	"java": {
		sources: []string{".java", ".kt"},
		deps:    []string{"pom.xml", "build.gradle", "build.gradle.kts"},
	},
}

var languageAliases = map[string]string{ //nolint:gochecknoglobals // alias table
	"typescript": "javascript",
	"js":         "javascript",
	"ts":         "javascript",
	"golang":     "go",
	"kotlin":     "java",
	"py":         "python",
}

func profileFor(lang string) languageProfile {
	key := strings.ToLower(strings.TrimSpace(lang))
	if alias, ok := languageAliases[key]; ok {
		key = alias
	}
	if p, ok := languages[key]; ok {
		return p
	}
	return languages[defaultLangKey]
}

// CodeQuality looks at the file manifest: the share of source files in the
// repository language and whether a dependency manifest is present.
func CodeQuality(_ context.Context, d *model.RepositoryDescriptor) (Raw, error) {
	if len(d.Files) == 0 {
		return value(0), nil
	}
	profile := profileFor(d.Language)

	sources, hasDeps := 0, false
	for _, f := range d.Files {
		p := strings.ToLower(f.Path)
		if hasAnySuffix(p, profile.sources) {
			sources++
		}
		if containsString(profile.deps, path.Base(p)) {
			hasDeps = true
		}
	}
	fraction := float64(sources) / float64(len(d.Files))

	if hasDeps {
		return value(Clamp01(depsBase + sourceWeight*fraction)), nil
	}
	return value(Clamp01(min(sourceWeight*fraction, noDepsCeiling))), nil
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
