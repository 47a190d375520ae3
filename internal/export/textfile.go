// Package export renders rating results in the Prometheus text exposition format,
// suitable for the node exporter textfile collector.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

// Metric family names.
const (
	NetScoreName        = "pkg_rating_net_score"
	NetScoreLatencyName = "pkg_rating_net_score_latency_seconds"
	MetricScoreName     = "pkg_rating_metric_score"
	MetricLatencyName   = "pkg_rating_metric_latency_seconds"
)

// Families converts records into gauge families. Failed metrics keep their -1 value.
func Families(records []*domain.NetScoreRecord) []*dto.MetricFamily {
	netScore := gaugeFamily(NetScoreName, "Weighted net score of the package.")
	netLatency := gaugeFamily(NetScoreLatencyName, "Wall clock time spent rating the package.")
	metricScore := gaugeFamily(MetricScoreName, "Score of one metric of the package.")
	metricLatency := gaugeFamily(MetricLatencyName, "Time spent computing one metric of the package.")

	for _, record := range records {
		if record == nil {
			continue
		}
		url := labelPair("url", record.URL)
		netScore.Metric = append(netScore.Metric, gauge(record.NetScore, url))
		netLatency.Metric = append(netLatency.Metric, gauge(record.NetScoreLatencySeconds, url))
		for _, m := range record.Metrics {
			name := labelPair("metric", string(m.Name))
			metricScore.Metric = append(metricScore.Metric, gauge(m.Score, name, url))
			metricLatency.Metric = append(metricLatency.Metric, gauge(m.LatencySeconds, name, url))
		}
	}
	return []*dto.MetricFamily{netScore, netLatency, metricScore, metricLatency}
}

// Write renders records as text exposition format.
func Write(w io.Writer, records []*domain.NetScoreRecord) error {
	for _, family := range Families(records) {
		if len(family.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("failed to encode %s: %w", family.GetName(), err)
		}
	}
	return nil
}

// WriteFile atomically replaces path with the rendered records.
func WriteFile(path string, records []*domain.NetScoreRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create textfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write textfile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace textfile: %w", err)
	}
	return nil
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(value float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(value)},
	}
}

func labelPair(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
