package main

import (
	"github.com/spf13/cobra"

	"github.com/cbegin/bms2rpp-go"
	"github.com/cbegin/bms2rpp-go/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr string
		dir  string
		jobs int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve chart conversion over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger(cmd.ErrOrStderr())
			s := server.New(dir, logger, bms2rpp.WithProbeJobs(jobs))
			return s.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&dir, "root", ".", "directory charts are served from")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "keysound files probed at once per request")
	return cmd
}
