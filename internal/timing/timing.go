// Package timing converts beat positions to absolute seconds. A beat
// position is a measure index plus the fraction of that measure; the map
// between the two is built one measure at a time as tempo changes, stops and
// measure lengths are discovered.
package timing

import (
	"math"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/cbegin/bms2rpp-go/internal/util"
)

var (
	ErrTempoAnchorCollision     = errors.New("tempo anchor collision")
	ErrUnsupportedTimeSignature = errors.New("unsupported time signature")
)

// MeasureSeconds is the length in seconds of one unscaled measure at 1 BPM.
const MeasureSeconds = 240.0

const maxSignaturePart = 256

type Anchor struct {
	Position float64
	BPM      float64
	Seconds  float64
	// Quarter counts quarter notes from the start of the chart.
	Quarter float64
}

// Stop pauses playback at Position for Length unscaled measures.
type Stop struct {
	Position float64
	Length   float64
}

// Signature marks a measure-length change at the start of Measure.
type Signature struct {
	Measure    int
	Multiplier float64
	Seconds    float64
	Quarter    float64
}

// OffsetSeconds returns the time from the start of the measure beginning at
// measureStart to target. anchors[0] must be the tempo active at the start of
// the measure and the rest must follow in increasing position; stops must be
// sorted and lie inside the measure. Tempo segments scale with the measure
// length, stops do not.
func OffsetSeconds(measureStart, target float64, anchors []Anchor, stops []Stop, length float64) float64 {
	pos, bpm := anchors[0].Position, anchors[0].BPM
	if pos < measureStart {
		pos = measureStart
	}
	var seconds float64
	for _, a := range anchors[1:] {
		if a.Position >= target {
			break
		}
		seconds += (a.Position - pos) * MeasureSeconds * length / bpm
		pos, bpm = a.Position, a.BPM
	}
	seconds += (target - pos) * MeasureSeconds * length / bpm

	for _, s := range stops {
		if s.Position >= target {
			break
		}
		seconds += s.Length * MeasureSeconds / bpmAt(anchors, s.Position)
	}
	return seconds
}

func bpmAt(anchors []Anchor, position float64) float64 {
	bpm := anchors[0].BPM
	for _, a := range anchors[1:] {
		if a.Position > position {
			break
		}
		bpm = a.BPM
	}
	return bpm
}

// SignatureFor converts a measure-length multiplier to a time signature with
// a denominator of at least 4, using the exact binary value of multiplier.
func SignatureFor(multiplier float64) (num, den int, err error) {
	if !(multiplier > 0) || math.IsInf(multiplier, 0) {
		return 0, 0, errors.Wrapf(ErrUnsupportedTimeSignature, "measure length %v", multiplier)
	}
	r := new(big.Rat).SetFloat64(multiplier)
	n, d := r.Num(), r.Denom()
	if !n.IsInt64() || !d.IsInt64() || n.Int64() > maxSignaturePart || d.Int64() > maxSignaturePart {
		return 0, 0, errors.Wrapf(ErrUnsupportedTimeSignature, "measure length %v is %s", multiplier, r.String())
	}
	n64, d64 := n.Int64(), d.Int64()
	if d64 < 4 {
		factor := util.LCM(d64, 4) / d64
		n64 *= factor
		d64 *= factor
	}
	if n64 > maxSignaturePart {
		return 0, 0, errors.Wrapf(ErrUnsupportedTimeSignature, "%d/%d from measure length %v", n64, d64, multiplier)
	}
	return int(n64), int(d64), nil
}

func sortStops(stops []Stop) {
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Position < stops[j].Position })
}
