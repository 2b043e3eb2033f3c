// =============================================================================
// In-flight Payment Sender - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (inflightpayment)
//   ├── sendCmd (inflightpayment send)
//   └── versionCmd (inflightpayment version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inflightpayment/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose switches the log level to debug.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "inflightpayment",
	Short: "Send in-flight payment data from CSV exports to the customers API",
	Long: `inflightpayment reads a purchases CSV and a customers CSV, validates every
row, joins each valid customer with their valid purchases and sends the result
to the customers API in a single upsert call.

Rejected rows are never sent. They are exported for review to the reports
directory together with a snapshot of the payload.

Example Usage:
  inflightpayment send -p purchases.csv -c customers.csv            # dev
  inflightpayment send -p purchases.csv -c customers.csv -e prod    # production
  inflightpayment send -p purchases.csv -c customers.csv --dry-run  # no upload`,

	// Execute prints the error once; cobra must not print it as well.
	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the configuration file (optional when left at the default)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Log at debug level",
	)
}
