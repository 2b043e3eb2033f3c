// =============================================================================
// In-flight Payment Sender - Main Entry Point
// =============================================================================
//
// USAGE:
//   inflightpayment send -p purchases.csv -c customers.csv [-e dev|test|prod]
//   inflightpayment version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsing, validation, pipeline, transport and reporting
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/inflightpayment/cmd"
)

func main() {
	cmd.Execute()
}
