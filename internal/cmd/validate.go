package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the cw-inspector configuration file without scanning anything.
The watch section is checked as well when domains are listed.

Example:
  cw-inspector validate -c /path/to/cw-inspector.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Watch.Domains) > 0 {
		if err := cfg.ValidateWatch(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Target port: %d\n", cfg.Inspector.Port)
	fmt.Printf("  Handshake timeout: %s\n", cfg.Inspector.HandshakeTimeout)
	fmt.Printf("  Verify chain: %v\n", cfg.Inspector.VerifyChain)
	fmt.Printf("  Transparency lookups: %v\n", cfg.Transparency.Enabled)
	fmt.Printf("  Cache backend: %s\n", cfg.Cache.Backend)
	fmt.Printf("  API listen address: %s\n", cfg.Server.Listen)
	fmt.Printf("  Watched domains: %d\n", len(cfg.Watch.Domains))
	if len(cfg.Watch.Domains) > 0 {
		fmt.Printf("  Watch schedule: %s\n", cfg.Watch.Schedule)
	}

	return nil
}
