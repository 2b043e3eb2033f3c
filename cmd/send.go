// =============================================================================
// In-flight Payment Sender - Send Command
// =============================================================================
//
// This file defines the 'send' command, which runs the whole in-flight
// payment flow for one pair of input files.
//
// COMMAND USAGE:
//   inflightpayment send -p <purchases.csv> -c <customers.csv> [flags]
//
// FLAGS:
//   -p, --purchases : Path to the purchases CSV (required)
//   -c, --customers : Path to the customers CSV (required)
//   -e, --env       : Target environment: dev, test or prod (default dev)
//   --dry-run       : Validate and write reports without calling the API
//
// PROCESSING PIPELINE:
//   1. Load configuration and open the run log
//   2. Resolve the environment endpoint
//   3. Check the input paths
//   4. Run the pipeline (parse, validate, join, send, report)
//   5. Print the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inflightpayment/internal/config"
	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/metrics"
	"github.com/ginjaninja78/inflightpayment/internal/pipeline"
	"github.com/ginjaninja78/inflightpayment/internal/report"
	"github.com/ginjaninja78/inflightpayment/internal/transport"
	"github.com/ginjaninja78/inflightpayment/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// sendOptions holds the flags of the send command.
type sendOptions struct {
	purchases string
	customers string
	env       string
	dryRun    bool
}

var sendFlags sendOptions

// =============================================================================
// SEND COMMAND DEFINITION
// =============================================================================

// sendCmd represents the 'send' command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Validate the CSV inputs and send the payload to the customers API",
	Long: `The send command parses the purchases and customers files, rejects every
row that does not match the API schema and upserts each valid customer with
their valid purchases in a single PUT request.

Reports written to the reports directory:
  - payload.json       : the payload, written before the request
  - bad_purchases.json : rejected purchase rows by customer id
  - bad_customers.json : rejected customer rows by customer id
  - invalid_rows_*.xlsx: rejected rows with their reason (optional)
  - metrics.prom       : run counters in Prometheus text format (optional)`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd.Context(), cmd.OutOrStdout(), cfgFile, verbose, sendFlags)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendFlags.purchases, "purchases", "p", "", "Path to the CSV file containing purchase data")
	sendCmd.Flags().StringVarP(&sendFlags.customers, "customers", "c", "", "Path to the CSV file containing customer data")
	sendCmd.Flags().StringVarP(&sendFlags.env, "env", "e", config.DefaultEnvironment, "Target environment: "+config.ListEnvironments(""))
	sendCmd.Flags().BoolVar(&sendFlags.dryRun, "dry-run", false, "Run validation and write reports without calling the API")

	_ = sendCmd.MarkFlagRequired("purchases")
	_ = sendCmd.MarkFlagRequired("customers")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runSend runs one send. Operator lines go to out; every line is also logged.
func runSend(ctx context.Context, out io.Writer, cfgPath string, debug bool, opts sendOptions) error {
	// Commands run outside Execute (tests) carry no context.
	if ctx == nil {
		ctx = context.Background()
	}

	// =========================================================================
	// STEP 1: CONFIGURATION AND LOGGING
	// =========================================================================

	// The default config file is optional; an explicit --config must exist.
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// --verbose overrides the configured level.
	if debug {
		level = logging.LevelDebug
	}

	// Every line of this run carries the same run id, so runs appended to
	// one log file can be told apart.
	fileLogger, err := logging.Open(cfg.LogFile, level)
	if err != nil {
		return err
	}
	defer fileLogger.Close()
	logger := fileLogger.WithRunID(uuid.New().String())

	logger.Info("# --- Starting inflightpayment with arguments: purchases=%s customers=%s env=%s dry_run=%t --- #",
		opts.purchases, opts.customers, opts.env, opts.dryRun)

	// =========================================================================
	// STEP 2: RESOLVE ENVIRONMENT
	// =========================================================================

	// An unknown environment is fatal before any input is read.
	endpoint, err := cfg.EndpointURL(opts.env)
	if err != nil {
		logger.Error("%v", err)
		return err
	}

	// =========================================================================
	// STEP 3: CHECK INPUT PATHS
	// =========================================================================

	// Bad paths are warnings, not errors: the run stops with exit status 0.
	if !checkCSVPaths(out, logger, opts) {
		return nil
	}

	// =========================================================================
	// STEP 4: RUN
	// =========================================================================

	// Dry runs get no transport at all, so nothing can reach the network.
	var t pipeline.Transport
	if opts.dryRun {
		logger.Debug("Dry run: %s will not be called", endpoint)
	} else {
		client := transport.New(endpoint, cfg.RequestTimeout, out, logger)
		logger.Info("Endpoint: %s (timeout %s)", client.Endpoint(), cfg.RequestTimeout)
		t = client
	}

	// A nil registry disables the metrics textfile.
	var reg *metrics.Registry
	if cfg.Reports.MetricsEnabled() {
		reg = metrics.NewRegistry()
	}

	// The pipeline writes the reports itself; only fatal failures come back
	// as err.
	p := pipeline.New(report.New(cfg.ReportsDir, logger), t, reg, out, logger)
	result, err := p.Run(ctx, pipeline.Options{
		PurchasesPath: opts.purchases,
		CustomersPath: opts.customers,
		CSVSettings:   cfg.CSVSettings,
		DryRun:        opts.dryRun,
		Workbook:      cfg.Reports.WorkbookEnabled(),
	})
	if err != nil {
		logger.Error("%v", err)
		return err
	}

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	printSummary(out, result)

	// A network failure exits non-zero once the reports are on disk. A
	// non-2xx answer has already been printed and logged by the client.
	if result.TransportErr != nil {
		return fmt.Errorf("failed to send in-flight payment data: %w", result.TransportErr)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// checkCSVPaths reports whether both inputs name .csv files. Each bad path is
// printed and logged as a warning.
func checkCSVPaths(out io.Writer, logger logging.Logger, opts sendOptions) bool {
	ok := true
	warn := func(msg string) {
		fmt.Fprintln(out, msg)
		logger.Warn("%s", msg)
		ok = false
	}
	if !utils.HasExtension(opts.purchases, ".csv") {
		warn("Please provide a valid path to a CSV file containing purchase data.")
	}
	if !utils.HasExtension(opts.customers, ".csv") {
		warn("Please provide a valid path to a CSV file containing customer data.")
	}
	return ok
}

func printSummary(out io.Writer, r *pipeline.Result) {
	fmt.Fprintln(out, "\n=== Run Complete ===")
	fmt.Fprintf(out, "Purchases:       %d read, %d rejected\n", r.Stats.PurchaseRows, r.Stats.InvalidPurchases)
	fmt.Fprintf(out, "Customers:       %d read, %d rejected\n", r.Stats.CustomerRows, r.Stats.InvalidCustomers)
	fmt.Fprintf(out, "Payload:         %d customer(s), %d skipped without customer record\n",
		r.Stats.PayloadCustomers, r.Stats.SkippedCustomers)
	switch {
	case !r.Stats.Sent:
		fmt.Fprintln(out, "Upload:          skipped (dry run)")
	case r.TransportErr != nil:
		fmt.Fprintln(out, "Upload:          failed")
	default:
		fmt.Fprintf(out, "Upload:          HTTP %d\n", r.Response.StatusCode)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", r.Stats.ProcessingTime.Round(time.Millisecond))
	if len(r.Files) > 0 {
		fmt.Fprintln(out, "Reports:")
		for _, f := range r.Files {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
}
