// Command texlsd starts the TeX/LaTeX language server, speaking the
// Language Server Protocol over stdio or websocket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mava/digestif/internal/config"
	"github.com/mava/digestif/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "texlsd",
	Short: "texlsd - a TeX/LaTeX language server",
	Long: `texlsd answers Language Server Protocol requests for TeX and
LaTeX documents: hover help, signature help, and completion (including
known labels, bibliography keys, and file names), driven by a
dictionary of known commands and environments.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logging.Initialize(cfg.JSONLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
