// Command sizer sizes solar thermal installations from the command line.
//
// Usage:
//
//	sizer size --locale pt-BR --latitude -23,5 --occupants 4 --space --floor-area 100
//	sizer locales
//	sizer validate --tables ./tables
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	tablesDir     string
	defaultLocale string
	verbose       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sizer",
		Short:         "Solar water and space heating sizing",
		Long:          "sizer computes collector area, storage volume, radiators and cost for a solar thermal installation.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.tablesDir, "tables", os.Getenv("TABLES_DIR"), "directory of lookup table YAML files (default: built-in tables)")
	cmd.PersistentFlags().StringVar(&opts.defaultLocale, "default-locale", thermal.DefaultLocale, "locale used when a requested one is not supported")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine fallbacks to stderr")

	cmd.AddCommand(newSizeCmd(opts), newLocalesCmd(opts), newValidateCmd(opts))
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) engine(cmd *cobra.Command) (*thermal.Engine, error) {
	reg, err := thermal.OpenRegistry(o.tablesDir, o.defaultLocale)
	if err != nil {
		return nil, err
	}
	return thermal.NewEngine(reg, o.logger(cmd)), nil
}
