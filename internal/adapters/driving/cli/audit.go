package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewatch/internal/core/domain"
)

var (
	eventsLimit    int
	eventsField    string
	runsLimit      int
	runsStatus     string
	runsWorkflow   string
	artifactsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List detected changes",
	RunE:  runEvents,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List dispatch attempts",
	Long: `Lists workflow runs, most recent first. Status is one of success, error
or skipped (a suppressed duplicate).`,
	RunE: runRuns,
}

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List side effects recorded by workflows",
	RunE:  runArtifacts,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "maximum number of events")
	eventsCmd.Flags().StringVar(&eventsField, "field", "", "only show changes to this field")

	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "only show runs with this status")
	runsCmd.Flags().StringVar(&runsWorkflow, "workflow", "", "only show runs of this workflow")

	artifactsCmd.Flags().IntVarP(&artifactsLimit, "limit", "n", 20, "maximum number of artifacts")

	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(artifactsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	events, err := a.Audit.Events(cmd.Context(), domain.EventFilter{Field: eventsField, Limit: eventsLimit})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		cmd.Println("No events recorded.")
		return nil
	}

	for i := range events {
		e := &events[i]
		old := describeValue(e.OldValue)
		if !e.OldKnown {
			old = "(unknown)"
		}
		cmd.Printf("%s  %s#%s: %s -> %s\n", stamp(e.DetectedAt), e.Path, e.Field, old, describeValue(e.NewValue))
	}
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	status := domain.RunStatus(runsStatus)
	if status != "" && !status.IsValid() {
		return fmt.Errorf("invalid status %q: must be success, error or skipped", runsStatus)
	}

	runs, err := a.Audit.Runs(cmd.Context(), domain.RunFilter{
		Status:       status,
		WorkflowName: runsWorkflow,
		Limit:        runsLimit,
	})
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for i := range runs {
		r := &runs[i]
		cmd.Printf("%s  %-7s  %s/%s  %s#%s", stamp(r.StartedAt), r.Status, r.RuleName, r.WorkflowName, r.DocumentPath, r.Field)
		if r.Message != "" {
			cmd.Printf("  %s", r.Message)
		}
		cmd.Println()
	}
	return nil
}

func runArtifacts(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	artifacts, err := a.Audit.Artifacts(cmd.Context(), artifactsLimit)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	if len(artifacts) == 0 {
		cmd.Println("No artifacts recorded.")
		return nil
	}

	for i := range artifacts {
		art := &artifacts[i]
		cmd.Printf("%s  %s  %s  %s (run %s)\n", stamp(art.CreatedAt), art.Kind, art.Reference, art.DocumentPath, art.RunID)
	}
	return nil
}

func stamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func describeValue(v any) string {
	if v == nil {
		return "(none)"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
