package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-inspector/internal/notify"
	"github.com/certwatch-app/cw-inspector/internal/state"
	"github.com/certwatch-app/cw-inspector/internal/watch"
)

const webhookTimeout = 10 * time.Second

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan configured domains on a schedule",
	Long: `Rescan every domain listed under watch.domains on the configured cron
schedule. Each run logs expiry status and warnings, detects certificate
rotations against the previous run, and posts events to watch.webhook_url
when it is set.

Example:
  cw-inspector watch -c /path/to/cw-inspector.yaml
  cw-inspector watch --once`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run a single pass and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.ValidateWatch(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	stateManager := state.NewManager(cfg.Watch.StateDir)
	if loadErr := stateManager.Load(); loadErr != nil {
		// Don't fail on state load errors - rotations are detected from the next run
		fmt.Printf("Note: %v (will create new state)\n", loadErr)
	}

	var notifier watch.Notifier
	if cfg.Watch.WebhookURL != "" {
		notifier = notify.New(cfg.Watch.WebhookURL, webhookTimeout, eng.logger.Named("notify"))
	}

	w := watch.New(watch.Options{
		Schedule:    cfg.Watch.Schedule,
		Domains:     cfg.Watch.Domains,
		Concurrency: cfg.Inspector.Concurrency,
	}, eng.assembler, stateManager, notifier, eng.logger.Named("watch"))

	ctx, cancel := signalContext()
	defer cancel()

	if watchOnce {
		summary := w.RunOnce(ctx)
		fmt.Printf("Scanned %d domain(s): %d failed, %d rotated, %d warning(s)\n",
			summary.Scanned, summary.Failed, summary.Rotated, summary.Warnings)
		if summary.Failed > 0 {
			return fmt.Errorf("%d domain(s) failed", summary.Failed)
		}
		return nil
	}

	fmt.Printf("Watching %d domain(s)\n", len(cfg.Watch.Domains))
	fmt.Printf("Schedule: %s\n", cfg.Watch.Schedule)
	fmt.Printf("State file: %s\n", stateManager.FilePath())

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch stopped gracefully")
	return nil
}
