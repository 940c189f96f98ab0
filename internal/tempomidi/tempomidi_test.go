package tempomidi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/bms2rpp-go/internal/timing"
)

type tempoAt struct {
	tick uint32
	bpm  float64
}

type meterAt struct {
	tick     uint32
	num, den uint8
}

func TestWriteReadBack(t *testing.T) {
	tempo := []timing.Anchor{
		{Position: 0, BPM: 120, Quarter: 0},
		{Position: 1.5, BPM: 60, Quarter: 6},
	}
	signatures := []timing.Signature{
		{Measure: 2, Multiplier: 0.75, Quarter: 8},
		{Measure: 3, Multiplier: 1, Quarter: 11},
		{Measure: 4, Multiplier: 1.0 / 3, Quarter: 15},
		{Measure: 5, Multiplier: 64, Quarter: 20},
		{Measure: 6, Multiplier: 255.0 / 256, Quarter: 276},
		{Measure: 7, Multiplier: 127.0 / 128, Quarter: 280},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tempo, signatures))

	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var tempos []tempoAt
	var meters []meterAt
	var abs uint32
	for _, ev := range s.Tracks[0] {
		abs += ev.Delta
		var bpm float64
		var num, den uint8
		switch {
		case ev.Message.GetMetaTempo(&bpm):
			tempos = append(tempos, tempoAt{abs, bpm})
		case ev.Message.GetMetaMeter(&num, &den):
			meters = append(meters, meterAt{abs, num, den})
		}
	}

	require.Len(t, tempos, 2)
	assert.Equal(t, uint32(0), tempos[0].tick)
	assert.InDelta(t, 120, tempos[0].bpm, 0.01)
	assert.Equal(t, uint32(6*TicksPerQuarter), tempos[1].tick)
	assert.InDelta(t, 60, tempos[1].bpm, 0.01)

	// 1/3 has no exact binary signature; 256/4 and 255/256 do not fit a
	// meter event. All three are skipped rather than written truncated.
	assert.Equal(t, []meterAt{
		{8 * TicksPerQuarter, 3, 4},
		{11 * TicksPerQuarter, 4, 4},
		{280 * TicksPerQuarter, 127, 128},
	}, meters)
}
