package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arq-generator/internal"
	"arq-generator/internal/config"
	"arq-generator/internal/logger"
	"arq-generator/internal/scanner"
	"arq-generator/internal/server"
)

func newAnalyzeCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "analyze <repo-url>",
		Short: "Clone a repository and print its diagram",
		Long:  "Shallow-clones the repository at <repo-url>, generates its diagram and prints it to stdout.",
		Example: `  arq analyze https://github.com/org/repo
  arq analyze git@gitlab.com:group/repo.git --depth 2 > diagram.mmd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scanner.ValidateDepth(depth); err != nil {
				return err
			}

			analyzer, err := newAnalyzer(cmd)
			if err != nil {
				return err
			}

			mermaid, err := analyzer.AnalyzeRepository(cmd.Context(), args[0], depth)
			if err != nil {
				return fmt.Errorf("failed to analyze repository: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), mermaid)
			return nil
		},
	}

	addDepthFlag(cmd, &depth)
	return cmd
}

func newDiagramCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "diagram <path>",
		Short: "Print the diagram of a local directory",
		Long:  "Runs the full pipeline against a local checkout, without cloning.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scanner.ValidateDepth(depth); err != nil {
				return err
			}

			analyzer, err := newAnalyzer(cmd)
			if err != nil {
				return err
			}

			if err := analyzer.CheckGenerator(cmd.Context()); err != nil {
				return err
			}

			mermaid, err := analyzer.AnalyzeDirectory(cmd.Context(), args[0], depth)
			if err != nil {
				return fmt.Errorf("failed to analyze directory: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), mermaid)
			return nil
		},
	}

	addDepthFlag(cmd, &depth)
	return cmd
}

func newScanCommand() *cobra.Command {
	var (
		depth     int
		rulesFile string
	)

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Print the scanned structure of a local directory as JSON",
		Long:  "Scans a local checkout and prints the structure that would be sent to the model. No model is contacted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// scan needs no model settings, so only logging and rules are read
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), os.Getenv("ARQ_LOG_FORMAT"), os.Getenv("ARQ_LOG_LEVEL")))

			if rulesFile == "" {
				rulesFile = os.Getenv("ARQ_RULES_FILE")
			}
			rules, err := config.LoadRules(rulesFile)
			if err != nil {
				return err
			}

			structure, err := scanner.New(rules.Scan).Scan(args[0], depth)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(structure)
		},
	}

	addDepthFlag(cmd, &depth)
	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules YAML file overriding the embedded defaults (default $ARQ_RULES_FILE)")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long:  "Serves POST /analyze and GET /health on ARQ_LISTEN_ADDR until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			analyzer, err := internal.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			return server.New(cfg, analyzer).ListenAndServe(cmd.Context())
		},
	}
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the generator is reachable and serves the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := newAnalyzer(cmd)
			if err != nil {
				return err
			}

			generator := analyzer.Generator()
			if err := analyzer.CheckGenerator(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "generator: disconnected (%s, %s)\n", generator.Name(), generator.Model())
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "generator: connected (%s, %s)\n", generator.Name(), generator.Model())
			return nil
		},
	}
}

func addDepthFlag(cmd *cobra.Command, depth *int) {
	cmd.Flags().IntVarP(depth, "depth", "d", scanner.MinDepth,
		fmt.Sprintf("Directory depth to scan and clone (%d-%d)", scanner.MinDepth, scanner.MaxDepth))
}

// loadConfig reads configuration from the environment and sets up logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Setup(cfg)
	return cfg, nil
}

func newAnalyzer(cmd *cobra.Command) (*internal.ArchitectureAnalyzer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return internal.New(cmd.Context(), cfg)
}
