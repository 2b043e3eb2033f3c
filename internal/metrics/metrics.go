package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Source labels.
const (
	SourcePurchases = "purchases"
	SourceCustomers = "customers"
)

// Registry holds the counters of one run. The run is a batch job, so the
// registry is written once to a textfile for a node_exporter style collector
// instead of being served over HTTP.
type Registry struct {
	reg *prometheus.Registry

	RowsRead         *prometheus.CounterVec
	RowsAccepted     *prometheus.CounterVec
	RowsRejected     *prometheus.CounterVec
	PayloadCustomers prometheus.Gauge
	JoinSkipped      prometheus.Counter
	UpsertStatus     prometheus.Gauge
	UpsertSeconds    prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// NewRegistry creates a Registry with every metric registered.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	read := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "inflightpayment_rows_read_total"}, []string{"source"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "inflightpayment_rows_accepted_total"}, []string{"source"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "inflightpayment_rows_rejected_total"}, []string{"source"})
	payload := prometheus.NewGauge(prometheus.GaugeOpts{Name: "inflightpayment_payload_customers"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "inflightpayment_join_skipped_total"})
	status := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inflightpayment_upsert_status_code",
		Help: "HTTP status of the upsert call; 0 when it was not sent or failed before a response.",
	})
	seconds := prometheus.NewGauge(prometheus.GaugeOpts{Name: "inflightpayment_upsert_duration_seconds"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "inflightpayment_last_run_timestamp_seconds"})

	r.MustRegister(read, accepted, rejected, payload, skipped, status, seconds, lastRun)
	return &Registry{
		reg:              r,
		RowsRead:         read,
		RowsAccepted:     accepted,
		RowsRejected:     rejected,
		PayloadCustomers: payload,
		JoinSkipped:      skipped,
		UpsertStatus:     status,
		UpsertSeconds:    seconds,
		LastRunTimestamp: lastRun,
	}
}

// ObserveSource records the row counts of one input file.
func (r *Registry) ObserveSource(source string, read, accepted, rejected int) {
	if r == nil {
		return
	}
	r.RowsRead.WithLabelValues(source).Add(float64(read))
	r.RowsAccepted.WithLabelValues(source).Add(float64(accepted))
	r.RowsRejected.WithLabelValues(source).Add(float64(rejected))
}

// ObserveJoin records the payload size and the purchase-only ids dropped.
func (r *Registry) ObserveJoin(customers, skipped int) {
	if r == nil {
		return
	}
	r.PayloadCustomers.Set(float64(customers))
	r.JoinSkipped.Add(float64(skipped))
}

// ObserveUpsert records the upsert outcome.
func (r *Registry) ObserveUpsert(status int, took time.Duration) {
	if r == nil {
		return
	}
	r.UpsertStatus.Set(float64(status))
	r.UpsertSeconds.Set(took.Seconds())
}

// WriteTextfile stamps the run time and writes every metric to path in the
// Prometheus text format.
func (r *Registry) WriteTextfile(path string, now time.Time) error {
	if r == nil {
		return nil
	}
	r.LastRunTimestamp.Set(float64(now.Unix()))
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
