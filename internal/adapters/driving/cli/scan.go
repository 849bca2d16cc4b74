package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single poll cycle",
	Long: `Performs exactly one scan, diff, evaluate and dispatch pass over the
notes and prints the cycle report.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	report, err := a.Poller.RunCycle(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r *domain.CycleReport) {
	cmd.Printf("Scanned %d documents in %s\n", r.Documents, r.Duration().Round(time.Millisecond))
	cmd.Printf("  Changes:    %d\n", r.Changes)
	cmd.Printf("  Dispatched: %d (%d succeeded, %d failed)\n", r.Dispatched, r.Succeeded, r.Failed)
	cmd.Printf("  Skipped:    %d\n", r.Skipped)
	if r.Removed > 0 {
		cmd.Printf("  Removed:    %d\n", r.Removed)
	}
	if r.Errors > 0 {
		cmd.Printf("  Errors:     %d\n", r.Errors)
	}
	if r.Interrupted {
		cmd.Println("  Cycle was interrupted.")
	}
}
