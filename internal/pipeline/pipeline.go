// =============================================================================
// In-flight Payment Sender - Pipeline
// =============================================================================
//
// This module orchestrates one run, from the two CSV inputs to the upsert
// call and the reports.
//
// RUN STEPS:
//   1. Parse the purchases and customers files
//   2. Coerce, validate and route every row
//   3. Join valid customers with their valid purchases
//   4. Print the payload summary
//   5. Write payload.json
//   6. Send the payload (skipped on dry runs)
//   7. Write bad_purchases.json and bad_customers.json
//   8. Write the optional workbook and metrics textfile
//
// A transport failure does not stop the run: the reports of steps 7 and 8
// are still written and the failure is reported on the Result.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ginjaninja78/inflightpayment/internal/config"
	"github.com/ginjaninja78/inflightpayment/internal/csvparser"
	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/metrics"
	"github.com/ginjaninja78/inflightpayment/internal/report"
	"github.com/ginjaninja78/inflightpayment/internal/transport"
	"github.com/ginjaninja78/inflightpayment/internal/types"
	"github.com/ginjaninja78/inflightpayment/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// Payload is the joined payload that was written and sent.
	Payload []types.PayloadEntry

	// Purchases and Customers hold the partitioned rows of each input.
	Purchases *PurchaseResult
	Customers *CustomerResult

	// Response is the upsert outcome. Nil on dry runs and transport failures.
	Response *transport.Response

	// TransportErr is the network-level failure of the upsert, if any.
	TransportErr error

	// Files lists every report written, in write order.
	Files []string

	// Stats contains run statistics.
	Stats Stats
}

// Stats contains statistics about the run.
type Stats struct {
	PurchaseRows     int
	CustomerRows     int
	InvalidPurchases int
	InvalidCustomers int

	// PayloadCustomers is the number of entries in the payload.
	PayloadCustomers int

	// SkippedCustomers is the number of purchase-side ids dropped because
	// they had no valid customer record.
	SkippedCustomers int

	// Sent reports whether the upsert was attempted.
	Sent bool

	ProcessingTime time.Duration
}

// Delivered reports whether the endpoint accepted the payload.
func (r *Result) Delivered() bool {
	return r.TransportErr == nil && r.Response.OK()
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Transport sends the payload. *transport.Client satisfies it.
type Transport interface {
	Upsert(ctx context.Context, payload []types.PayloadEntry) (*transport.Response, error)
}

// Options selects the inputs and optional outputs of a run.
type Options struct {
	PurchasesPath string
	CustomersPath string
	CSVSettings   config.CSVSettings

	// DryRun runs everything except the upsert call.
	DryRun bool

	// Workbook enables the invalid-rows xlsx export.
	Workbook bool
}

// Pipeline runs the in-flight payment flow.
type Pipeline struct {
	validator *validation.Validator
	reporter  *report.Reporter
	transport Transport
	metrics   *metrics.Registry
	out       io.Writer
	logger    logging.Logger
}

// New creates a Pipeline.
//
// PARAMETERS:
//   - reporter: Writes the run artifacts.
//   - t: Sends the payload. May be nil when every run is a dry run.
//   - reg: Collects run metrics. Nil disables the metrics textfile.
//   - out: Receives the operator-facing lines (stdout in the CLI).
//   - logger: Receives the log lines.
func New(reporter *report.Reporter, t Transport, reg *metrics.Registry, out io.Writer, logger logging.Logger) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		validator: validation.New(out, logger),
		reporter:  reporter,
		transport: t,
		metrics:   reg,
		out:       out,
		logger:    logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes one run. The returned error is set for failures that stop the
// run (unreadable input, unwritable reports). A failed upsert is not one of
// them; see Result.TransportErr and Result.Response.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{}

	// =========================================================================
	// STEP 1: PARSE INPUTS
	// =========================================================================

	// Both files are read up front. A missing or malformed file stops the
	// run before anything is written.
	purchaseData, err := csvparser.Parse(opts.PurchasesPath, opts.CSVSettings)
	if err != nil {
		return result, fmt.Errorf("failed to read purchases: %w", err)
	}
	customerData, err := csvparser.Parse(opts.CustomersPath, opts.CSVSettings)
	if err != nil {
		return result, fmt.Errorf("failed to read customers: %w", err)
	}
	p.logger.Debug("Parsed %d purchase row(s) and %d customer row(s)", purchaseData.RowCount, customerData.RowCount)

	// =========================================================================
	// STEP 2: TRANSFORM
	// =========================================================================

	// Each row is coerced, then validated. Rejected rows are printed as they
	// are found and kept verbatim for the bad-data reports.
	result.Purchases = NewPurchaseTransformer(p.validator, p.logger).Transform(purchaseData)
	result.Customers = NewCustomerTransformer(p.validator, p.logger).Transform(customerData)

	p.logger.Debug("%s", validation.FormatErrors("purchase", result.Purchases.Errors))
	p.logger.Debug("%s", validation.FormatErrors("customer", result.Customers.Errors))

	// =========================================================================
	// STEP 3: JOIN
	// =========================================================================

	// Only customers with at least one valid purchase make it into the
	// payload, in the order the purchases file first mentions them.
	result.Payload = NewPayloadJoiner(p.logger).Join(result.Customers.Valid, result.Purchases.Valid)

	// Record the counts once, for the Result and for the metrics registry.
	result.Stats.PurchaseRows = result.Purchases.Rows
	result.Stats.CustomerRows = result.Customers.Rows
	result.Stats.InvalidPurchases = result.Purchases.Invalid.Count()
	result.Stats.InvalidCustomers = result.Customers.Invalid.Count()
	result.Stats.PayloadCustomers = len(result.Payload)
	result.Stats.SkippedCustomers = result.Purchases.Valid.Len() - len(result.Payload)

	p.metrics.ObserveSource(metrics.SourcePurchases, result.Stats.PurchaseRows,
		result.Purchases.Valid.Count(), result.Stats.InvalidPurchases)
	p.metrics.ObserveSource(metrics.SourceCustomers, result.Stats.CustomerRows,
		len(result.Customers.Valid), result.Stats.InvalidCustomers)
	p.metrics.ObserveJoin(result.Stats.PayloadCustomers, result.Stats.SkippedCustomers)

	// =========================================================================
	// STEP 4-5: SUMMARY AND PAYLOAD SNAPSHOT
	// =========================================================================

	p.say("Sending payload to the API: %d customers with purchases", len(result.Payload))

	// The snapshot is written before the request so the payload can be
	// inspected even when the call fails.
	path, err := p.reporter.WritePayload(result.Payload)
	if err != nil {
		return result, fmt.Errorf("failed to write payload: %w", err)
	}
	result.Files = append(result.Files, path)

	// =========================================================================
	// STEP 6: SEND
	// =========================================================================

	// The upsert outcome never stops the run: the status or the network
	// error is kept on the Result and the reports below are still written.
	switch {
	case opts.DryRun:
		p.say("Dry run: payload not sent.")
	case p.transport == nil:
		return result, fmt.Errorf("no transport configured")
	default:
		result.Stats.Sent = true

		// Time the call for the upsert duration gauge.
		sent := time.Now()
		result.Response, result.TransportErr = p.transport.Upsert(ctx, result.Payload)
		// A network error leaves no response; report status 0.
		status := 0
		if result.Response != nil {
			status = result.Response.StatusCode
		}
		p.metrics.ObserveUpsert(status, time.Since(sent))
	}

	// =========================================================================
	// STEP 7-8: REPORTS
	// =========================================================================

	// Bad-data reports are always written, empty when nothing was rejected.
	if path, err = p.reporter.WriteInvalidPurchases(result.Purchases.Invalid); err != nil {
		return result, fmt.Errorf("failed to write purchase report: %w", err)
	}
	result.Files = append(result.Files, path)

	if path, err = p.reporter.WriteInvalidCustomers(result.Customers.Invalid); err != nil {
		return result, fmt.Errorf("failed to write customer report: %w", err)
	}
	result.Files = append(result.Files, path)

	// Optional artifacts: the operator workbook and the metrics textfile.
	if opts.Workbook {
		path, err = p.reporter.WriteWorkbook(result.Purchases.Invalid, result.Customers.Invalid)
		if err != nil {
			return result, fmt.Errorf("failed to write workbook: %w", err)
		}
		// An empty path means there was nothing to export.
		if path != "" {
			result.Files = append(result.Files, path)
		}
	}

	if p.metrics != nil {
		if path, err = p.reporter.WriteMetrics(p.metrics, time.Now()); err != nil {
			return result, fmt.Errorf("failed to write metrics: %w", err)
		}
		result.Files = append(result.Files, path)
	}

	result.Stats.ProcessingTime = time.Since(start)
	p.logger.Debug("Run finished in %v", result.Stats.ProcessingTime)
	return result, nil
}

// say prints msg to the operator and logs it at INFO.
func (p *Pipeline) say(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.logger.Info("%s", msg)
	fmt.Fprintln(p.out, msg)
}
