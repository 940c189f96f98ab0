package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "bms2rpp",
		Short:         "Convert BMS and DTX charts into REAPER projects",
		Long:          `bms2rpp places every keysound of a BMS/BME/BML or DTX chart at its absolute time and writes the result as a REAPER project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(newConvertCmd(opts))
	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
