package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the Prometheus counters for a reconciliation run. Each run
// is a one-shot batch process, so metrics are registered on a private
// registry and dumped into the log at exit rather than served.
type Metrics struct {
	registry *prometheus.Registry

	RowsRead             *prometheus.CounterVec // label: dataset
	GeometryDecodeErrors prometheus.Counter
	TimestampCoercions   prometheus.Counter
	SegmentsSkipped      prometheus.Counter // null-geometry rows skipped by the spatial join
	CrosswalkPairs       prometheus.Counter
	MergedRows           prometheus.Counter
}

// NewMetrics creates and registers all run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traveltime_etl",
			Name:      "rows_read_total",
			Help:      "Source rows read, by dataset.",
		}, []string{"dataset"}),
		GeometryDecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traveltime_etl",
			Name:      "geometry_decode_errors_total",
			Help:      "Malformed geometry payloads degraded to null.",
		}),
		TimestampCoercions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traveltime_etl",
			Name:      "timestamp_coercions_total",
			Help:      "Unparseable timestamps coerced to null.",
		}),
		SegmentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traveltime_etl",
			Name:      "segments_skipped_total",
			Help:      "Rows skipped by the spatial join for lacking a decoded geometry.",
		}),
		CrosswalkPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traveltime_etl",
			Name:      "crosswalk_pairs_total",
			Help:      "Overlapping (probe segment, station) pairs emitted.",
		}),
		MergedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traveltime_etl",
			Name:      "merged_rows_total",
			Help:      "Rows in the merged time series.",
		}),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.GeometryDecodeErrors,
		m.TimestampCoercions,
		m.SegmentsSkipped,
		m.CrosswalkPairs,
		m.MergedRows,
	)
	return m
}

// LogSummary gathers the registry and logs one line per metric sample. This
// is the one-shot replacement for a scrape endpoint.
func (m *Metrics) LogSummary(logger *slog.Logger) {
	families, err := m.registry.Gather()
	if err != nil {
		logger.Error("gather metrics", "error", err)
		return
	}
	for _, fam := range families {
		for _, sample := range fam.GetMetric() {
			args := []any{"value", sampleValue(sample)}
			for _, label := range sample.GetLabel() {
				args = append(args, label.GetName(), label.GetValue())
			}
			logger.Info(fam.GetName(), args...)
		}
	}
}

func sampleValue(m *dto.Metric) float64 {
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	if g := m.GetGauge(); g != nil {
		return g.GetValue()
	}
	return 0
}
