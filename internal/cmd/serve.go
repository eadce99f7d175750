package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-inspector/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scan reports over HTTP",
	Long: `Start the HTTP API. Reports are served as JSON:

  GET /api/v1/scan/{domain}               scan (certificate may come from cache)
  GET /api/v1/scan/{domain}?refresh=true  rescan, bypassing the cache
  GET /healthz                            liveness probe
  GET /metrics                            Prometheus metrics

Example:
  cw-inspector serve -c /path/to/cw-inspector.yaml
  CWI_SERVER_LISTEN=:9090 cw-inspector serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(server.Options{
		Listen:    cfg.Server.Listen,
		RateLimit: cfg.Server.RateLimit,
	}, eng.assembler, eng.logger.Named("http"))

	fmt.Printf("Serving cw-inspector API on %s\n", cfg.Server.Listen)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("Server stopped gracefully")
	return nil
}
