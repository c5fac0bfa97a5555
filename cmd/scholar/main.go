// Command scholar führt eine Suche einmalig aus und schreibt den Export als Datei oder nach stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"scholar-export/config"
	"scholar-export/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version wird beim Build per -ldflags gesetzt.
var version = "dev"

var (
	flagMax     int
	flagFormat  string
	flagOut     string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "scholar",
	Short:        "Search scholarly publications and export them as CSV or XLSX",
	SilenceUsage: true,
}

func init() {
	searchCmd.Flags().IntVar(&flagMax, "max", 0, "Maximum number of results (default: MAX_RESULTS)")
	searchCmd.Flags().StringVar(&flagFormat, "format", "csv", "Export format: csv or xlsx")
	searchCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file (default: stdout, xlsx defaults to scholar_results.xlsx)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if !flagVerbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zcfg.Build()
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a search and export the enriched results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		stack, err := services.NewStack(cfg, logger)
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), cmd.OutOrStdout(), stack.Pipeline, strings.Join(args, " "))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "scholar "+version)
	},
}

func runSearch(ctx context.Context, stdout io.Writer, pipeline *services.Pipeline, query string) error {
	format, err := services.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	rows, err := pipeline.Run(ctx, query, flagMax)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no results for %q", query)
	}

	out := flagOut
	if out == "" && format == services.FormatXLSX {
		out = format.Filename()
	}
	if out == "" || out == "-" {
		return services.Write(stdout, format, rows)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := services.Write(f, format, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d results to %s\n", len(rows), out)
	return nil
}
