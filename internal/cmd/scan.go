package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
	"github.com/certwatch-app/cw-inspector/internal/ui"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var scanOutput string

var scanCmd = &cobra.Command{
	Use:   "scan <domain>...",
	Short: "Inspect the TLS certificate of one or more domains",
	Long: `Connect to each domain over TLS and print a report of its leaf
certificate, negotiated cipher and Certificate Transparency history.

Examples:
  cw-inspector scan example.com
  cw-inspector scan example.com api.example.com -o json
  CWI_INSPECTOR_PORT=8443 cw-inspector scan internal.example.com`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", outputText, "output format (text or json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanOutput != outputText && scanOutput != outputJSON {
		return fmt.Errorf("output must be one of: text, json")
	}

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

	results := eng.assembler.ScanAll(ctx, args)

	if scanOutput == outputJSON {
		if err := writeJSONReports(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		writeTextReports(cmd.OutOrStdout(), results)
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderFailure(r.Domain, r.Err))
		}
	}

	return scanFailures(results)
}

// writeJSONReports prints one report as an object and several as an array
func writeJSONReports(w io.Writer, results []inspector.Result) error {
	reports := make([]*inspector.ScanReport, 0, len(results))
	for _, r := range results {
		if r.Report != nil {
			reports = append(reports, r.Report)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var err error
	switch {
	case len(results) == 1 && len(reports) == 1:
		err = enc.Encode(reports[0])
	case len(results) > 1:
		err = enc.Encode(reports)
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func writeTextReports(w io.Writer, results []inspector.Result) {
	for _, r := range results {
		if r.Report != nil {
			fmt.Fprintln(w, ui.RenderReport(r.Report))
		}
	}
}

// scanFailures summarizes failed domains as a single error
func scanFailures(results []inspector.Result) error {
	var failed []string
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if kind := inspector.KindOf(r.Err); kind != "" {
			failed = append(failed, fmt.Sprintf("%s (%s)", r.Domain, kind))
		} else {
			failed = append(failed, r.Domain)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("scan failed for %d of %d domain(s): %s", len(failed), len(results), strings.Join(failed, ", "))
}
