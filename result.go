package bms2rpp

import (
	"io"
	"path/filepath"

	"github.com/cbegin/bms2rpp-go/internal/audio"
	"github.com/cbegin/bms2rpp-go/internal/chart"
	"github.com/cbegin/bms2rpp-go/internal/diag"
	"github.com/cbegin/bms2rpp-go/internal/preview"
	"github.com/cbegin/bms2rpp-go/internal/rpp"
	"github.com/cbegin/bms2rpp-go/internal/sequencer"
	"github.com/cbegin/bms2rpp-go/internal/tempomidi"
	"github.com/cbegin/bms2rpp-go/internal/timing"
)

// Result is a finished conversion. Its writers render into any io.Writer,
// so callers can buffer output and only touch the filesystem on success.
type Result struct {
	Chart    *chart.Chart
	Timeline *sequencer.Timeline
	Sources  map[string]audio.Source

	signatures []rpp.SignaturePoint
	sink       *diag.Sink
}

// Warnings returns every recoverable problem met during conversion.
func (r *Result) Warnings() []error {
	return r.sink.Warnings()
}

func (r *Result) Stats() sequencer.Stats {
	return r.Timeline.Stats
}

// Project builds the REAPER project. File references are made relative to
// outDir, where the project file will be saved.
func (r *Result) Project(outDir string) *rpp.Project {
	tl := r.Timeline
	p := &rpp.Project{
		InitialBPM:   tl.InitialBPM,
		MasterVolume: r.Chart.MasterVolume,
	}
	for _, a := range tl.Tempo {
		p.Tempo = append(p.Tempo, rpp.TempoPoint{Seconds: a.Seconds, BPM: a.BPM})
	}
	p.Signatures = append(p.Signatures, r.signatures...)

	d := r.Chart.Dialect
	for _, tr := range tl.Tracks {
		ks := r.Chart.Keysounds[tr.Code]
		file := relativeTo(outDir, r.Sources[tr.Code].Path)
		track := rpp.Track{
			Name:   rpp.TrackName(ks.File),
			Volume: d.TrackVolume * ks.Volume,
			Pan:    ks.Pan,
		}
		for _, s := range tr.Samples {
			track.Items = append(track.Items, rpp.Item{
				Position: s.Position,
				Length:   s.Length,
				Name:     ks.File,
				File:     file,
			})
		}
		p.Tracks = append(p.Tracks, track)
	}
	return p
}

func (r *Result) WriteRPP(w io.Writer, outDir string, opts ...rpp.Option) error {
	return rpp.Write(w, r.Project(outDir), opts...)
}

// WriteTempoMIDI writes the tempo map as a MIDI conductor track.
func (r *Result) WriteTempoMIDI(w io.Writer) error {
	return tempomidi.Write(w, r.Timeline.Tempo, r.Timeline.Signatures)
}

// RenderPreview draws the timeline as a PNG labelled with keysound names.
func (r *Result) RenderPreview(w io.Writer) error {
	cfg := preview.DefaultConfig()
	cfg.Labels = make(map[string]string, len(r.Timeline.Tracks))
	for _, tr := range r.Timeline.Tracks {
		cfg.Labels[tr.Code] = rpp.TrackName(r.Chart.Keysounds[tr.Code].File)
	}
	return preview.Render(w, r.Timeline, cfg)
}

// signaturePoints converts measure-length markers to time signatures,
// dropping the ones REAPER cannot express.
func signaturePoints(markers []timing.Signature, sink *diag.Sink) []rpp.SignaturePoint {
	var out []rpp.SignaturePoint
	for _, m := range markers {
		num, den, err := timing.SignatureFor(m.Multiplier)
		if err != nil {
			sink.Warn(err, "measure", m.Measure)
			continue
		}
		out = append(out, rpp.SignaturePoint{Seconds: m.Seconds, Num: num, Den: den})
	}
	return out
}

func relativeTo(dir, path string) string {
	if dir == "" || path == "" {
		return filepath.ToSlash(path)
	}
	absDir, err1 := filepath.Abs(dir)
	absPath, err2 := filepath.Abs(path)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}
