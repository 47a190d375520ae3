package domain

// VulnerabilityCounts is the per-severity summary of a dependency audit report.
type VulnerabilityCounts struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Penalty weighs each vulnerability by severity: 0.02 for low rising by 0.02 per level.
func (v VulnerabilityCounts) Penalty() float64 {
	var penalty float64
	for level, count := range []int{v.Low, v.Moderate, v.High, v.Critical} {
		penalty += float64(count) * (0.02 + float64(level)/50)
	}
	return penalty
}

// Total returns the number of vulnerabilities across all severities.
func (v VulnerabilityCounts) Total() int {
	return v.Low + v.Moderate + v.High + v.Critical
}

// CommentDensitySample counts comment lines across a set of source files.
type CommentDensitySample struct {
	CommentLines int
	TotalLines   int
}

// Add merges another sample into s.
func (s *CommentDensitySample) Add(other CommentDensitySample) {
	s.CommentLines += other.CommentLines
	s.TotalLines += other.TotalLines
}

// Density is CommentLines/TotalLines, or 0 for an empty sample.
func (s CommentDensitySample) Density() float64 {
	if s.TotalLines == 0 {
		return 0
	}
	return float64(s.CommentLines) / float64(s.TotalLines)
}
