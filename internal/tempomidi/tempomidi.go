// Package tempomidi exports a chart's tempo map as a Standard MIDI File
// conductor track, for DAWs that import tempo from MIDI.
package tempomidi

import (
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/bms2rpp-go/internal/timing"
)

const TicksPerQuarter = 960

// Largest parts a meter event holds: the numerator is a byte and the
// denominator a power of two that must also fit in one.
const (
	maxMeterNum = 255
	maxMeterDen = 128
)

type event struct {
	tick  uint32
	meter bool
	msg   smf.Message
}

// Write encodes tempo anchors and measure-length markers at their quarter
// note positions. Stops have no MIDI representation and are left out;
// markers without a time signature a meter event can hold are skipped.
func Write(w io.Writer, tempo []timing.Anchor, signatures []timing.Signature) error {
	var events []event
	for _, a := range tempo {
		events = append(events, event{tick: ticks(a.Quarter), msg: smf.MetaTempo(a.BPM)})
	}
	for _, s := range signatures {
		num, den, err := timing.SignatureFor(s.Multiplier)
		if err != nil || num > maxMeterNum || den > maxMeterDen {
			continue
		}
		events = append(events, event{tick: ticks(s.Quarter), meter: true, msg: smf.MetaMeter(uint8(num), uint8(den))})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].meter && !events[j].meter
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("tempo"))
	var last uint32
	for _, e := range events {
		tr.Add(e.tick-last, e.msg)
		last = e.tick
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	s.Add(tr)
	_, err := s.WriteTo(w)
	return errors.Wrap(err, "write midi")
}

func ticks(quarter float64) uint32 {
	return uint32(math.Round(quarter * TicksPerQuarter))
}
