package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

var sampleRecords = []*domain.NetScoreRecord{
	{
		URL:                    "https://github.com/o/a",
		NetScore:               0.75,
		NetScoreLatencySeconds: 2.5,
		Metrics: []domain.MetricResult{
			{Name: domain.License, Score: 1, LatencySeconds: 0.3},
			{Name: domain.Correctness, Score: domain.FailedScore, LatencySeconds: domain.FailedScore},
		},
	},
	nil,
	{
		URL:      "https://github.com/o/b",
		NetScore: 0.1,
		Metrics:  []domain.MetricResult{{Name: domain.RampUp, Score: 0.5, LatencySeconds: 0.01}},
	},
}

func TestWrite_ParsesBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecords))

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(buf.String()))
	require.NoError(t, err)

	require.Contains(t, families, NetScoreName)
	assert.Len(t, families[NetScoreName].Metric, 2)
	assert.Len(t, families[MetricScoreName].Metric, 3)
	assert.Len(t, families[MetricLatencyName].Metric, 3)

	found := false
	for _, m := range families[MetricScoreName].Metric {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["url"] == "https://github.com/o/a" && labels["metric"] == "Correctness" {
			found = true
			assert.Equal(t, domain.FailedScore, m.GetGauge().GetValue())
		}
	}
	assert.True(t, found, "failed metric is exported with its sentinel")
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pkg_rating.prom")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteFile(path, sampleRecords))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pkg_rating_net_score{url="https://github.com/o/a"} 0.75`)
	assert.NotContains(t, string(data), "stale")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is renamed into place")
}
