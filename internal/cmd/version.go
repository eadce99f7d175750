package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-inspector/internal/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, git commit, and build date of cw-inspector.
The same version is sent as the User-Agent of Certificate Transparency
lookups.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd.OutOrStdout(), version.GetInfo(), versionJSON)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print version information as JSON")
}

func printVersion(w io.Writer, info version.Info, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "cw-inspector %s\n", info.Version)
	fmt.Fprintf(w, "  Commit:     %s\n", info.GitCommit)
	fmt.Fprintf(w, "  Build Date: %s\n", info.BuildDate)
	fmt.Fprintf(w, "  Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "  Platform:   %s/%s\n", info.OS, info.Arch)
	fmt.Fprintf(w, "  User-Agent: %s\n", version.UserAgent())
	return nil
}
