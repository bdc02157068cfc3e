// Package model contains domain models passed between layers.
package model

import "strings"

// SourceKind tells what kind of artifact a descriptor points at.
type SourceKind string

const (
	KindModel   SourceKind = "model"
	KindDataset SourceKind = "dataset"
	KindCode    SourceKind = "code"
)

// FileEntry is one file of a repository manifest.
type FileEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"` // bytes
}

// Benchmark is a reported evaluation result.
type Benchmark struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Task    string  `json:"task,omitempty"`
	Dataset string  `json:"dataset,omitempty"`
}

// DatasetSignals describe the dataset linked from a model.
type DatasetSignals struct {
	Documented bool  `json:"documented"`
	Downloads  int64 `json:"downloads"`
	Configs    int   `json:"configs"`
	Viewer     bool  `json:"viewer"`
}

// RepositoryDescriptor is everything the scorer knows about one repository.
// It is read-only once handed to the scoring engine.
type RepositoryDescriptor struct {
	Name     string      `json:"name"`
	URL      string      `json:"url,omitempty"`
	Kind     SourceKind  `json:"kind,omitempty"`
	Readme   string      `json:"readme,omitempty"`
	Files    []FileEntry `json:"files,omitempty"`
	License  string      `json:"license,omitempty"`
	Language string      `json:"language,omitempty"`

	// Contributors maps author to commit count over the trailing 12 months.
	Contributors map[string]int `json:"contributors,omitempty"`

	Downloads int64 `json:"downloads,omitempty"`
	Likes     int64 `json:"likes,omitempty"`

	DatasetURL string `json:"dataset_url,omitempty"`
	CodeURL    string `json:"code_url,omitempty"`
	DemoURL    string `json:"demo_url,omitempty"`

	Benchmarks []Benchmark     `json:"benchmarks,omitempty"`
	Dataset    DatasetSignals `json:"dataset"`
}

// Category is the upper-case kind written to the output record. Unknown or
// empty kinds are reported as MODEL.
func (d *RepositoryDescriptor) Category() string {
	switch d.Kind {
	case KindDataset, KindCode:
		return strings.ToUpper(string(d.Kind))
	default:
		return strings.ToUpper(string(KindModel))
	}
}

// DisplayName falls back to the URL when no name was supplied.
func (d *RepositoryDescriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.URL
}
