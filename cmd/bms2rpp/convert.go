package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cbegin/bms2rpp-go"
)

type convertOptions struct {
	dialect  string
	encoding string
	jobs     int
	midi     string
	preview  string
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <chart> [output.rpp]",
		Short: "Convert a chart into a REAPER project",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) > 1 {
				out = args[1]
			}
			return runConvert(cmd, root, opts, args[0], out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.dialect, "dialect", "", "chart dialect bms|dtx (default: by file extension)")
	f.StringVar(&opts.encoding, "encoding", "", "chart text encoding (default: $BMS2RPP_ENCODING or shift_jis)")
	f.IntVar(&opts.jobs, "jobs", 0, "keysound files probed at once (default: number of CPUs)")
	f.StringVar(&opts.midi, "midi", "", "also write the tempo map as a MIDI file")
	f.StringVar(&opts.preview, "preview", "", "also write a PNG preview of the timeline")
	return cmd
}

// defaultOutput is the chart name with an .rpp extension, in the working
// directory.
func defaultOutput(chartPath string) string {
	base := filepath.Base(chartPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".rpp"
}

type output struct {
	path   string
	render func(io.Writer) error
}

// writeAll renders every output into memory before the first file is
// written, so a failed render leaves the filesystem untouched.
func writeAll(outputs []output) error {
	bufs := make([]bytes.Buffer, len(outputs))
	for i, o := range outputs {
		if err := o.render(&bufs[i]); err != nil {
			return errors.Wrapf(err, "render %s", o.path)
		}
	}
	for i, o := range outputs {
		if err := os.WriteFile(o.path, bufs[i].Bytes(), 0o644); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return nil
}

func runConvert(cmd *cobra.Command, root *rootOptions, opts *convertOptions, chartPath, out string) error {
	if out == "" {
		out = defaultOutput(chartPath)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return errors.Wrap(err, "resolve output path")
	}
	logger := root.logger(cmd.ErrOrStderr())

	res, err := bms2rpp.Convert(cmd.Context(), chartPath,
		bms2rpp.WithDialect(opts.dialect),
		bms2rpp.WithEncoding(opts.encoding),
		bms2rpp.WithProbeJobs(opts.jobs),
		bms2rpp.WithLogger(logger))
	if err != nil {
		return err
	}

	outputs := []output{{absOut, func(w io.Writer) error { return res.WriteRPP(w, filepath.Dir(absOut)) }}}
	if opts.midi != "" {
		outputs = append(outputs, output{opts.midi, res.WriteTempoMIDI})
	}
	if opts.preview != "" {
		outputs = append(outputs, output{opts.preview, res.RenderPreview})
	}
	if err := writeAll(outputs); err != nil {
		return err
	}

	st := res.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d tracks, %d samples, %d unresolved notes, %d warnings\n",
		out, len(res.Timeline.Tracks), st.Notes, st.Unresolved, len(res.Warnings()))
	return nil
}
