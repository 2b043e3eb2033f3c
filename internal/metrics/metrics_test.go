package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ginjaninja78/inflightpayment/internal/metrics"
)

func TestRegistryCounts(t *testing.T) {
	r := metrics.NewRegistry()
	r.ObserveSource(metrics.SourcePurchases, 3, 2, 1)
	r.ObserveJoin(2, 0)
	r.ObserveUpsert(200, 150*time.Millisecond)

	if got := testutil.ToFloat64(r.RowsRejected.WithLabelValues(metrics.SourcePurchases)); got != 1 {
		t.Fatalf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.PayloadCustomers); got != 2 {
		t.Fatalf("payload customers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.UpsertStatus); got != 200 {
		t.Fatalf("status = %v, want 200", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := metrics.NewRegistry()
	r.ObserveSource(metrics.SourceCustomers, 1, 1, 0)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := r.WriteTextfile(path, time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `inflightpayment_rows_read_total{source="customers"} 1`) {
		t.Fatalf("missing rows_read sample:\n%s", out)
	}
	if !strings.Contains(out, "inflightpayment_last_run_timestamp_seconds ") {
		t.Fatalf("missing timestamp sample:\n%s", out)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *metrics.Registry
	r.ObserveSource(metrics.SourcePurchases, 1, 1, 0)
	r.ObserveJoin(1, 0)
	r.ObserveUpsert(200, time.Second)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom"), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
