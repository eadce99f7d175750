// Package cmd provides CLI commands for cw-inspector.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspector/internal/config"
	"github.com/certwatch-app/cw-inspector/internal/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cw-inspector",
	Short: "cw-inspector - TLS certificate inspection engine",
	Long: `cw-inspector connects to domains over TLS and reports on their leaf
certificate, negotiated cipher and Certificate Transparency history.

Inspect a domain once:
  cw-inspector scan example.com

Serve reports over HTTP or rescan on a schedule:
  cw-inspector serve -c /path/to/cw-inspector.yaml
  cw-inspector watch -c /path/to/cw-inspector.yaml`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./cw-inspector.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	//nolint:errcheck // error is ignored because the flag is guaranteed to exist
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/cw-inspector")
		viper.SetConfigType("yaml")
		viper.SetConfigName("cw-inspector")
	}

	// CWI_INSPECTOR_PORT overrides inspector.port
	viper.SetEnvPrefix("CWI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file: %v\n", err)
	}
}

// loadConfig loads and validates the configuration every command shares
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// GetVersion returns the version information
func GetVersion() string {
	return version.GetVersion()
}
