package bms2rpp

import (
	"log/slog"
	"runtime"

	"github.com/cbegin/bms2rpp-go/internal/audio"
	"github.com/cbegin/bms2rpp-go/internal/chart"
)

type Option func(*config)

type config struct {
	dialect  string
	encoding string
	prober   audio.Prober
	jobs     int
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		encoding: chart.EncodingFromEnv(),
		prober:   audio.FileProber{},
		jobs:     runtime.NumCPU(),
	}
}

// WithDialect forces "bms" or "dtx" instead of choosing by file extension.
func WithDialect(name string) Option {
	return func(cfg *config) {
		cfg.dialect = name
	}
}

// WithEncoding sets the text encoding of the chart, e.g. "shift_jis" or
// "utf-8". A byte order mark in the chart still takes precedence.
func WithEncoding(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.encoding = name
		}
	}
}

func WithProber(p audio.Prober) Option {
	return func(cfg *config) {
		if p != nil {
			cfg.prober = p
		}
	}
}

// WithProbeJobs limits how many keysound files are probed at once.
func WithProbeJobs(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.jobs = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
