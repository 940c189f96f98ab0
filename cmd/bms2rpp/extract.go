package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cbegin/bms2rpp-go/internal/oggextract"
)

func newExtractCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract-ogg <in.wav> [out.ogg]",
		Short: `Get a playable OGG out of a "chunked vorbis" WAV`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".ogg"
			if len(args) > 1 {
				out = args[1]
			}
			return runExtract(cmd, root, in, out)
		},
	}
}

func runExtract(cmd *cobra.Command, root *rootOptions, in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	var st oggextract.Stats
	err = writeAll([]output{{out, func(w io.Writer) error {
		var err error
		st, err = oggextract.Extract(f, w)
		return err
	}}})
	if err != nil {
		return err
	}

	logger := root.logger(cmd.ErrOrStderr())
	if st.Truncated {
		logger.Warn("input ends inside an ogg page; the partial page was dropped", "input", in)
	}
	logger.Debug("extracted", "pages", st.Pages, "skipped", st.Skipped, "bytes", st.Bytes)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d pages\n", out, st.Pages)
	return nil
}
