package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the arq command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "arq",
		Short: "Generate Mermaid architecture diagrams for Git repositories",
		Long: `arq scans a repository checkout, asks a language model for a Mermaid
flowchart of its real components, and validates every node against the
files that actually exist.

All configuration is set via ARQ_* environment variables (a .env file in
the working directory is honored).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newAnalyzeCommand(),
		newScanCommand(),
		newDiagramCommand(),
		newServeCommand(),
		newHealthCommand(),
	)

	return root
}
