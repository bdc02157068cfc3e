package model

import "time"

// Size targets in output order.
const (
	TargetRaspberryPi = "raspberry_pi"
	TargetJetsonNano  = "jetson_nano"
	TargetDesktopPC   = "desktop_pc"
	TargetAWSServer   = "aws_server"
)

// SizeTargets lists the deployment targets of size_score in output order.
var SizeTargets = []string{TargetRaspberryPi, TargetJetsonNano, TargetDesktopPC, TargetAWSServer} //nolint:gochecknoglobals // fixed order

// MetricResult is the outcome of one metric for one repository.
type MetricResult struct {
	Name string
	// Raw is the extractor output before normalization.
	Raw float64
	// Value is the normalized score in [0,1]. For size_score it is the mean
	// of Targets.
	Value float64
	// Targets holds per-target scores (size_score only).
	Targets map[string]float64
	Latency time.Duration
	Failed  bool
	Err     string
}

// ScoreRecord is the full result for one repository. It is built once by the
// scoring engine and not mutated afterwards.
type ScoreRecord struct {
	Name            string
	Category        string
	Metrics         []MetricResult
	NetScore        float64
	NetScoreLatency time.Duration
}

// Metric returns the result for name, if present.
func (r *ScoreRecord) Metric(name string) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricResult{}, false
}
