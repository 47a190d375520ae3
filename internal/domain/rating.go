package domain

import "encoding/json"

// Rating is the flat view of a NetScoreRecord handed to consumers.
// Metrics that are missing or failed are reported as FailedScore.
type Rating struct {
	URL             string
	NetScore        float64
	NetScoreLatency float64
	Scores          map[MetricName]float64
	Latencies       map[MetricName]float64
}

// NewRating flattens record into a Rating covering every known metric.
func NewRating(record *NetScoreRecord) Rating {
	rating := Rating{
		URL:             record.URL,
		NetScore:        record.NetScore,
		NetScoreLatency: record.NetScoreLatencySeconds,
		Scores:          make(map[MetricName]float64),
		Latencies:       make(map[MetricName]float64),
	}
	for _, name := range AllMetrics() {
		rating.Scores[name] = FailedScore
		rating.Latencies[name] = FailedScore
		if m, ok := record.Lookup(name); ok && !m.Failed() {
			rating.Scores[name] = m.Score
			rating.Latencies[name] = m.LatencySeconds
		}
	}
	return rating
}

// FailedRating is the rating reported for a URL that could not be scored at all.
func FailedRating(url string) Rating {
	return NewRating(&NetScoreRecord{URL: url, NetScore: FailedScore, NetScoreLatencySeconds: FailedScore})
}

// Map returns the rating as URL, NetScore, NetScoreLatency, <Name> and <Name>Latency keys.
func (r Rating) Map() map[string]any {
	out := map[string]any{
		"URL":             r.URL,
		"NetScore":        r.NetScore,
		"NetScoreLatency": r.NetScoreLatency,
	}
	for name, score := range r.Scores {
		out[string(name)] = score
	}
	for name, latency := range r.Latencies {
		out[string(name)+"Latency"] = latency
	}
	return out
}

// Round applies fn to every numeric field.
func (r Rating) Round(fn func(float64) float64) Rating {
	rounded := Rating{
		URL:             r.URL,
		NetScore:        fn(r.NetScore),
		NetScoreLatency: fn(r.NetScoreLatency),
		Scores:          make(map[MetricName]float64, len(r.Scores)),
		Latencies:       make(map[MetricName]float64, len(r.Latencies)),
	}
	for name, v := range r.Scores {
		rounded.Scores[name] = fn(v)
	}
	for name, v := range r.Latencies {
		rounded.Latencies[name] = fn(v)
	}
	return rounded
}

// MarshalJSON encodes the flat map form.
func (r Rating) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
