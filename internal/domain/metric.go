// Package domain contains the core data structures and domain logic for the application.
package domain

// MetricName identifies one of the scoring functions that feed the net score.
type MetricName string

const (
	BusFactor            MetricName = "BusFactor"
	ResponsiveMaintainer MetricName = "ResponsiveMaintainer"
	RampUp               MetricName = "RampUp"
	Correctness          MetricName = "Correctness"
	License              MetricName = "License"
)

// Net score weights. They sum to 1.0.
const (
	WeightBusFactor            = 0.25
	WeightLicense              = 0.25
	WeightResponsiveMaintainer = 0.20
	WeightRampUp               = 0.20
	WeightCorrectness          = 0.10
)

// FailedScore marks a metric that could not be computed, as opposed to one that computed 0.
const FailedScore = -1.0

// AllMetrics returns every metric name in a stable order.
func AllMetrics() []MetricName {
	return []MetricName{BusFactor, ResponsiveMaintainer, RampUp, Correctness, License}
}

// Weight returns the fixed net score weight of the metric, or 0 for an unknown name.
func (n MetricName) Weight() float64 {
	switch n {
	case BusFactor:
		return WeightBusFactor
	case License:
		return WeightLicense
	case ResponsiveMaintainer:
		return WeightResponsiveMaintainer
	case RampUp:
		return WeightRampUp
	case Correctness:
		return WeightCorrectness
	}
	return 0
}

// MetricResult is the outcome of running one metric.
type MetricResult struct {
	Name           MetricName `json:"name"`
	Score          float64    `json:"score"`
	LatencySeconds float64    `json:"latency_seconds"`
	Err            string     `json:"error,omitempty"`
}

// Failed reports whether the metric could not be computed.
func (r MetricResult) Failed() bool {
	return r.Score == FailedScore
}

// NetScoreRecord is the aggregated rating of one package.
// Metrics are kept in completion order, so look them up by name.
type NetScoreRecord struct {
	URL                    string         `json:"url"`
	NetScore               float64        `json:"net_score"`
	NetScoreLatencySeconds float64        `json:"net_score_latency_seconds"`
	Metrics                []MetricResult `json:"metrics"`
}

// Lookup returns the result recorded for name.
func (r *NetScoreRecord) Lookup(name MetricName) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricResult{}, false
}

// WeightedScore sums max(0, score) * weight over the given results.
func WeightedScore(results []MetricResult) float64 {
	var total float64
	for _, r := range results {
		total += max(0, r.Score) * r.Name.Weight()
	}
	return total
}
