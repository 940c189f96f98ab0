package chart

import "sort"

const (
	EmptyCode = "00"

	ChannelBGM           = "01"
	ChannelMeasureLength = "02"
	ChannelTempo         = "03"
	ChannelExtendedTempo = "08"
	ChannelStop          = "09"

	// StopResolution is the number of stop ticks in one unscaled measure.
	StopResolution = 192.0

	DefaultBPM          = 120.0
	DefaultMasterVolume = 100.0
)

// Key addresses one channel of one measure.
type Key struct {
	Measure int
	Channel string
}

type Keysound struct {
	Code   string
	File   string
	Volume float64
	Pan    float64
}

type Chart struct {
	Dialect      Dialect
	InitialBPM   float64
	MasterVolume float64

	Keysounds      map[string]Keysound
	TempoTable     map[string]float64
	StopTable      map[string]float64
	MeasureLengths map[int]float64

	// Channels holds merged sequences. The background channel is kept in
	// Layers instead, one entry per declaration.
	Channels map[Key][]string
	Layers   map[Key][][]string

	MaxMeasure int
}

func newChart(d Dialect) *Chart {
	return &Chart{
		Dialect:        d,
		InitialBPM:     DefaultBPM,
		MasterVolume:   DefaultMasterVolume,
		Keysounds:      map[string]Keysound{},
		TempoTable:     map[string]float64{},
		StopTable:      map[string]float64{},
		MeasureLengths: map[int]float64{},
		Channels:       map[Key][]string{},
		Layers:         map[Key][][]string{},
	}
}

// Position returns the beat position of slot k out of n in measure.
func Position(measure, k, n int) float64 {
	return float64(measure) + float64(k)/float64(n)
}

// Sequence returns the merged code sequence of a channel, or nil.
func (c *Chart) Sequence(measure int, channel string) []string {
	return c.Channels[Key{Measure: measure, Channel: channel}]
}

// Sequences returns every independent sequence declared for a channel in a
// measure: all layers for the background channel, at most one otherwise.
func (c *Chart) Sequences(measure int, channel string) [][]string {
	key := Key{Measure: measure, Channel: channel}
	if channel == ChannelBGM {
		return c.Layers[key]
	}
	if seq, ok := c.Channels[key]; ok {
		return [][]string{seq}
	}
	return nil
}

// MeasureLength returns the length multiplier of measure, 1.0 when unset.
func (c *Chart) MeasureLength(measure int) float64 {
	if l, ok := c.MeasureLengths[measure]; ok {
		return l
	}
	return 1
}

// KeysoundCodes returns the defined keysound codes in ascending order.
func (c *Chart) KeysoundCodes() []string {
	codes := make([]string, 0, len(c.Keysounds))
	for code := range c.Keysounds {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
