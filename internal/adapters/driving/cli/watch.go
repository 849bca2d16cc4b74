package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewatch/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the poll loop until interrupted",
	Long: `Runs a cycle immediately and then every poll_interval until SIGINT or
SIGTERM. Documents already being processed when the signal arrives are
finished; no new ones are started.`,
	RunE: runWatch,
}

// signalContext is replaced in tests.
var signalContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cmd.Printf("Watching %s every %s (Ctrl+C to stop)\n", a.Config.NotesDir, a.Config.PollInterval)

	err = a.Poller.Start(ctx)
	if stopErr := a.Poller.Stop(); stopErr != nil {
		logger.Warn("stop: %v", stopErr)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}

	cmd.Println("Stopped.")
	return nil
}
