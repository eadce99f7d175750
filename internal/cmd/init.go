package cmd

import (
	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-inspector/internal/cmd/initcmd"
)

var (
	initOutputPath     string
	initNonInteractive bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new cw-inspector configuration",
	Long: `Create a cw-inspector configuration file with an interactive wizard.

The wizard asks where to save the file, then walks through four steps:
the TLS port, handshake timeout and chain verification used for every
scan; whether to count Certificate Transparency history and which cache
backend to use (memory or a shared Redis); the rescan schedule and an
optional webhook for watch mode; and finally the domains to watch, one
at a time. The result is validated before anything is written, and an
existing file is only replaced after confirmation.

Examples:
  # Interactive mode (default)
  cw-inspector init

  # Specify output path
  cw-inspector init -o /etc/cw-inspector/cw-inspector.yaml

  # Non-interactive mode (for CI/scripting)
  CWI_WATCH_DOMAINS=example.com,api.example.com cw-inspector init --non-interactive

Non-interactive mode starts from the defaults and reads these variables:
  CWI_LOG_LEVEL          log level (default: info)
  CWI_INSPECTOR_PORT     TLS port to inspect (default: 443)
  CWI_CACHE_BACKEND      memory or redis (default: memory)
  CWI_CACHE_REDIS_ADDR   Redis address (default: localhost:6379)
  CWI_WATCH_SCHEDULE     cron schedule (default: @every 6h)
  CWI_WATCH_WEBHOOK_URL  webhook receiving watch events
  CWI_WATCH_DOMAINS      comma-separated domains to watch`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", initcmd.DefaultConfigPath,
		"Output path for the configuration file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false,
		"Run in non-interactive mode using environment variables")
}

func runInit(_ *cobra.Command, _ []string) error {
	if initNonInteractive {
		return initcmd.RunNonInteractive(initOutputPath)
	}

	wizard := initcmd.NewWizard()
	wizard.SetOutputPath(initOutputPath)
	return wizard.Run()
}
