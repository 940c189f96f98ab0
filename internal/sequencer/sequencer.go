package sequencer

import (
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/cbegin/bms2rpp-go/internal/chart"
	"github.com/cbegin/bms2rpp-go/internal/diag"
	"github.com/cbegin/bms2rpp-go/internal/timing"
)

var ErrUnresolvedKeysound = errors.New("unresolved keysound")

// Sample is one keysound placement. Length starts as the natural duration
// of the keysound and only shrinks during trimming.
type Sample struct {
	Keysound string
	Group    string
	Channel  string
	Measure  int
	Beat     float64
	Position float64
	Length   float64
}

type Track struct {
	Code    string
	Samples []Sample
}

type Stats struct {
	Measures   int
	Notes      int
	Unresolved int
}

// Timeline is the result of a sweep: the resolved tempo map plus one sample
// list per keysound, sorted by position.
type Timeline struct {
	InitialBPM float64
	Tempo      []timing.Anchor
	Signatures []timing.Signature
	Tracks     []Track
	Stats      Stats
}

// End returns the time at which the last sample stops sounding.
func (t *Timeline) End() float64 {
	var end float64
	for _, tr := range t.Tracks {
		for _, s := range tr.Samples {
			end = math.Max(end, s.Position+s.Length)
		}
	}
	return end
}

type Sequencer struct {
	chart     *chart.Chart
	durations map[string]float64
	sink      *diag.Sink
	resolver  *timing.Resolver
	// lengths starts as the chart's measure-length overrides and gains the
	// 1.0 markers that close non-standard measures.
	lengths    map[int]float64
	samples    map[string][]*Sample
	all        []*Sample
	unresolved map[string]bool
	stats      Stats
}

// New prepares a sweep over c. durations maps keysound codes to their
// natural length in seconds; codes missing from it are not placed.
func New(c *chart.Chart, durations map[string]float64, sink *diag.Sink) *Sequencer {
	if sink == nil {
		sink = diag.NewSink(nil)
	}
	lengths := make(map[int]float64, len(c.MeasureLengths))
	for m, l := range c.MeasureLengths {
		lengths[m] = l
	}
	return &Sequencer{
		chart:      c,
		durations:  durations,
		sink:       sink,
		resolver:   timing.NewResolver(c.InitialBPM),
		lengths:    lengths,
		samples:    map[string][]*Sample{},
		unresolved: map[string]bool{},
	}
}

// Run sweeps every measure in order, then trims overlaps.
func (s *Sequencer) Run() *Timeline {
	last := s.chart.MaxMeasure + 1
	for m := 0; m <= last; m++ {
		s.runMeasure(m)
	}
	s.stats.Measures = last + 1
	Trim(s.all)
	return s.timeline()
}

func (s *Sequencer) runMeasure(m int) {
	r := s.resolver
	length, override := s.lengths[m]
	if !override {
		length = 1
	}
	r.BeginMeasure(m, length, s.collectStops(m))
	if override {
		r.MarkSignature(length)
	}
	s.collectTempo(m)
	r.Resolve()
	s.place(m)
	r.EndMeasure()

	if _, next := s.lengths[m+1]; !next && length != 1 {
		s.lengths[m+1] = 1
	}
}

func (s *Sequencer) collectStops(m int) []timing.Stop {
	seq := s.chart.Sequence(m, chart.ChannelStop)
	var stops []timing.Stop
	for k, code := range seq {
		if code == chart.EmptyCode {
			continue
		}
		ticks, ok := s.chart.StopTable[code]
		if !ok {
			s.sink.Warn(errors.Wrapf(chart.ErrMalformedDirective, "measure %03d: stop %s is not defined", m, code))
			continue
		}
		stops = append(stops, timing.Stop{
			Position: chart.Position(m, k, len(seq)),
			Length:   ticks / chart.StopResolution,
		})
	}
	return stops
}

// collectTempo adds the raw tempo channel before the extended one, so the
// raw value wins when both land on the same position.
func (s *Sequencer) collectTempo(m int) {
	raw := s.chart.Sequence(m, chart.ChannelTempo)
	for k, code := range raw {
		if code == chart.EmptyCode {
			continue
		}
		v, err := strconv.ParseUint(code, 16, 8)
		if err != nil {
			s.sink.Warn(errors.Wrapf(chart.ErrMalformedDirective, "measure %03d: tempo %q is not hexadecimal", m, code))
			continue
		}
		s.addAnchor(chart.Position(m, k, len(raw)), float64(v))
	}

	ext := s.chart.Sequence(m, chart.ChannelExtendedTempo)
	for k, code := range ext {
		if code == chart.EmptyCode {
			continue
		}
		v, ok := s.chart.TempoTable[code]
		if !ok {
			s.sink.Warn(errors.Wrapf(chart.ErrMalformedDirective, "measure %03d: tempo %s is not defined", m, code))
			continue
		}
		bpm := math.Abs(v)
		if bpm == 0 {
			s.sink.Warn(errors.Wrapf(chart.ErrMalformedDirective, "measure %03d: tempo %s is zero", m, code))
			continue
		}
		s.addAnchor(chart.Position(m, k, len(ext)), bpm)
	}
}

func (s *Sequencer) addAnchor(position, bpm float64) {
	if err := s.resolver.AddAnchor(position, bpm); err != nil {
		s.sink.Warn(err, "position", position)
	}
}

func (s *Sequencer) place(m int) {
	d := s.chart.Dialect
	for _, lane := range d.Lanes {
		for _, seq := range s.chart.Sequences(m, lane.Channel) {
			for k, code := range seq {
				if code == chart.EmptyCode {
					continue
				}
				length, ok := s.durations[code]
				if !ok {
					s.unresolvedNote(m, lane.Channel, code)
					continue
				}
				beat := chart.Position(m, k, len(seq))
				sample := &Sample{
					Keysound: code,
					Group:    groupFor(d, lane, code),
					Channel:  lane.Channel,
					Measure:  m,
					Beat:     beat,
					Position: s.resolver.Seconds(beat),
					Length:   length,
				}
				s.samples[code] = append(s.samples[code], sample)
				s.all = append(s.all, sample)
				s.stats.Notes++
			}
		}
	}
}

// unresolvedNote warns once per code and counts every skipped note.
func (s *Sequencer) unresolvedNote(m int, channel, code string) {
	s.stats.Unresolved++
	if s.unresolved[code] {
		s.sink.Debug("skipping note", "measure", m, "channel", channel, "code", code)
		return
	}
	s.unresolved[code] = true
	s.sink.Warn(errors.Wrapf(ErrUnresolvedKeysound, "measure %03d channel %s: keysound %s", m, channel, code))
}

func (s *Sequencer) timeline() *Timeline {
	codes := make([]string, 0, len(s.samples))
	for code := range s.samples {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	tracks := make([]Track, 0, len(codes))
	for _, code := range codes {
		list := s.samples[code]
		sortByPosition(list)
		tr := Track{Code: code, Samples: make([]Sample, len(list))}
		for i, smp := range list {
			tr.Samples[i] = *smp
		}
		tracks = append(tracks, tr)
	}
	return &Timeline{
		InitialBPM: s.chart.InitialBPM,
		Tempo:      s.resolver.Anchors(),
		Signatures: s.resolver.Signatures(),
		Tracks:     tracks,
		Stats:      s.stats,
	}
}
