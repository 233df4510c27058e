// Package cli implements catalogctl, the command-line client for resolving
// names against catalog sources and managing the SQLite metastore.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sqlcatalog/internal/app"
	"sqlcatalog/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]any{
				"error": err.Error(),
				"code":  errorCode(err),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// options holds the resolved persistent flags.
type options struct {
	output      string
	catalogFile string
	metaDB      string
	metaRoot    string
	duckDB      string
	maxSegments int
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Resolve SQL names against catalog sources",
		Long:          "Command-line interface for resolving dotted SQL names against YAML, SQLite and DuckDB catalogs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Apply precedence: flag > env > default
			flags := cmd.Flags()
			for flag, env := range map[string]struct {
				target *string
				name   string
			}{
				"catalog-file": {&opts.catalogFile, "CATALOG_FILE"},
				"meta-db":      {&opts.metaDB, "META_DB_PATH"},
				"meta-root":    {&opts.metaRoot, "META_DB_ROOT"},
				"duckdb":       {&opts.duckDB, "DUCKDB_PATH"},
				"output":       {&opts.output, "CATALOGCTL_OUTPUT"},
			} {
				if !flags.Changed(flag) {
					if v := os.Getenv(env.name); v != "" {
						*env.target = v
					}
				}
			}
			return validateOutputFormat(opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", defaultOutputFormat(), "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&opts.catalogFile, "catalog-file", "", "YAML catalog definition (path or s3:// URI)")
	rootCmd.PersistentFlags().StringVar(&opts.metaDB, "meta-db", "", "SQLite metastore file")
	rootCmd.PersistentFlags().StringVar(&opts.metaRoot, "meta-root", "", "Metastore root to resolve against (default: all roots)")
	rootCmd.PersistentFlags().StringVar(&opts.duckDB, "duckdb", "", "DuckDB database file")
	rootCmd.PersistentFlags().IntVar(&opts.maxSegments, "max-segments", 64, "Longest accepted path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log source activity to stderr")

	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newRootsCmd(opts))
	rootCmd.AddCommand(newKindsCmd(opts))
	rootCmd.AddCommand(newQuoteCmd(opts))
	rootCmd.AddCommand(newParseCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// defaultOutputFormat is table for terminals and json otherwise.
func defaultOutputFormat() string {
	if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // Fd fits in int
		return "table"
	}
	return "json"
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// config builds the source configuration. S3 settings come from the same
// environment variables the server reads.
func (o *options) config() *config.Config {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		// Server-only checks do not apply here.
		cfg = &config.Config{}
	}
	cfg.CatalogFile = o.catalogFile
	cfg.MetaDBPath = o.metaDB
	cfg.MetaRoot = o.metaRoot
	cfg.DuckDBPath = o.duckDB
	cfg.MaxPathSegments = o.maxSegments
	return cfg
}

func (o *options) openApp(ctx context.Context, stderr io.Writer) (*app.App, error) {
	return app.New(ctx, app.Deps{Cfg: o.config(), Logger: o.logger(stderr)})
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
