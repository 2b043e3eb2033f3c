// =============================================================================
// In-flight Payment Sender - Reporter
// =============================================================================
//
// The reporter owns every file a run leaves behind in the reports directory:
//
//   payload.json        - the outbound payload, written before the upsert
//   bad_purchases.json  - rejected purchase rows keyed by customer id
//   bad_customers.json  - rejected customer rows keyed by customer id
//   invalid_rows_*.xlsx - operator workbook of every rejected row (optional)
//   metrics.prom        - Prometheus textfile with the run counters (optional)
//
// =============================================================================

package report

import (
	"path/filepath"
	"time"

	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/metrics"
	"github.com/ginjaninja78/inflightpayment/internal/types"
	"github.com/ginjaninja78/inflightpayment/pkg/utils"
)

// Report file names inside the reports directory.
const (
	PayloadFile      = "payload.json"
	BadPurchasesFile = "bad_purchases.json"
	BadCustomersFile = "bad_customers.json"
	MetricsFile      = "metrics.prom"

	// WorkbookFormat is expanded by utils.GenerateOutputFileName.
	WorkbookFormat = "invalid_rows_{timestamp}_{uuid}"
)

// Reporter writes run artifacts into one directory.
type Reporter struct {
	dir    string
	logger logging.Logger
}

// New creates a Reporter writing into dir.
func New(dir string, logger logging.Logger) *Reporter {
	return &Reporter{dir: dir, logger: logger}
}

// Path joins name onto the reports directory.
func (r *Reporter) Path(name string) string {
	return filepath.Join(r.dir, name)
}

// EnsureDir creates the reports directory if it does not exist.
func (r *Reporter) EnsureDir() error {
	return utils.EnsureDirectory(r.dir)
}

// WritePayload writes the outbound payload as a JSON array. A nil payload is
// written as [].
func (r *Reporter) WritePayload(payload []types.PayloadEntry) (string, error) {
	if payload == nil {
		payload = []types.PayloadEntry{}
	}
	path := r.Path(PayloadFile)
	if err := r.write(path, payload); err != nil {
		return "", err
	}
	r.logger.Debug("payload written to %s", path)
	return path, nil
}

// WriteInvalidPurchases writes the rejected purchase rows and logs how many
// customer ids had at least one.
func (r *Reporter) WriteInvalidPurchases(invalid *types.Buckets[types.Rejected]) (string, error) {
	path := r.Path(BadPurchasesFile)
	if err := r.write(path, orEmpty(invalid)); err != nil {
		return "", err
	}
	if invalid != nil && invalid.Len() > 0 {
		r.logger.Warn("n bad purchase entries found: %d // exported to %s", invalid.Len(), path)
	} else {
		r.logger.Info("No bad purchase data found // exported empty file to %s", path)
	}
	return path, nil
}

// WriteInvalidCustomers writes the rejected customer rows and logs how many
// customer ids had at least one.
func (r *Reporter) WriteInvalidCustomers(invalid *types.Buckets[types.Rejected]) (string, error) {
	path := r.Path(BadCustomersFile)
	if err := r.write(path, orEmpty(invalid)); err != nil {
		return "", err
	}
	if invalid != nil && invalid.Len() > 0 {
		r.logger.Warn("n bad customer entries found: %d // exported to %s", invalid.Len(), path)
	} else {
		r.logger.Info("No bad customer data found // exported empty file to %s", path)
	}
	return path, nil
}

// WriteMetrics writes the run counters to metrics.prom.
func (r *Reporter) WriteMetrics(reg *metrics.Registry, now time.Time) (string, error) {
	path := r.Path(MetricsFile)
	if err := reg.WriteTextfile(path, now); err != nil {
		return "", err
	}
	r.logger.Debug("metrics written to %s", path)
	return path, nil
}

func (r *Reporter) write(path string, v interface{}) error {
	if err := r.EnsureDir(); err != nil {
		return err
	}
	return utils.WriteJSONFile(path, v)
}

func orEmpty(b *types.Buckets[types.Rejected]) *types.Buckets[types.Rejected] {
	if b == nil {
		return types.NewBuckets[types.Rejected]()
	}
	return b
}
