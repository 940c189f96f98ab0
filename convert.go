// Package bms2rpp converts BMS and DTX rhythm game charts into REAPER
// projects with every keysound placed at its absolute time.
package bms2rpp

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cbegin/bms2rpp-go/internal/audio"
	"github.com/cbegin/bms2rpp-go/internal/chart"
	"github.com/cbegin/bms2rpp-go/internal/diag"
	"github.com/cbegin/bms2rpp-go/internal/sequencer"
)

var (
	ErrMissingAudioSource = errors.New("missing audio source")
	ErrUnknownDialect     = chart.ErrUnknownDialect
)

// missingSourceError matches ErrMissingAudioSource while keeping the
// underlying probe failure reachable through Unwrap.
type missingSourceError struct {
	err error
}

func (e *missingSourceError) Error() string        { return ErrMissingAudioSource.Error() + ": " + e.err.Error() }
func (e *missingSourceError) Unwrap() error        { return e.err }
func (e *missingSourceError) Is(target error) bool { return target == ErrMissingAudioSource }

// Convert reads the chart at path, probes its keysounds in the same
// directory and places every note. Nothing is written; use the Result
// writers once conversion has succeeded.
func Convert(ctx context.Context, path string, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	d, err := selectDialect(cfg.dialect, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open chart")
	}
	defer f.Close()
	return convert(ctx, f, filepath.Dir(path), d, cfg)
}

// ConvertReader converts chart text read from r. Keysound files are looked
// up in dir. The dialect defaults to BMS.
func ConvertReader(ctx context.Context, r io.Reader, dir string, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	d := chart.BMS()
	if cfg.dialect != "" {
		var err error
		if d, err = chart.DialectByName(cfg.dialect); err != nil {
			return nil, err
		}
	}
	return convert(ctx, r, dir, d, cfg)
}

func selectDialect(name, path string) (chart.Dialect, error) {
	if name != "" {
		return chart.DialectByName(name)
	}
	return chart.DialectForPath(path)
}

func convert(ctx context.Context, r io.Reader, dir string, d chart.Dialect, cfg config) (*Result, error) {
	sink := diag.NewSink(cfg.logger)
	text, err := chart.NewDecodingReader(r, cfg.encoding)
	if err != nil {
		return nil, err
	}
	c, err := chart.NewParser(d, sink).Parse(text)
	if err != nil {
		return nil, err
	}
	sink.Logger().Debug("chart parsed", "dialect", d.Name, "keysounds", len(c.Keysounds), "measures", c.MaxMeasure+1)

	files := make(map[string]string, len(c.Keysounds))
	for _, code := range c.KeysoundCodes() {
		if code == chart.EmptyCode {
			continue
		}
		files[code] = c.Keysounds[code].File
	}
	sources, err := audio.ProbeAll(ctx, dir, files, cfg.prober, cfg.jobs)
	if err != nil {
		if errors.Is(err, audio.ErrFileUnavailable) {
			return nil, &missingSourceError{err: err}
		}
		return nil, errors.Wrap(err, "probe keysounds")
	}
	durations := make(map[string]float64, len(sources))
	for code, src := range sources {
		durations[code] = src.Duration
	}

	tl := sequencer.New(c, durations, sink).Run()
	sink.Logger().Debug("timeline built",
		"tracks", len(tl.Tracks), "notes", tl.Stats.Notes, "unresolved", tl.Stats.Unresolved, "seconds", tl.End())
	return &Result{
		Chart:    c,
		Timeline: tl,
		Sources:  sources,

		signatures: signaturePoints(tl.Signatures, sink),
		sink:       sink,
	}, nil
}
