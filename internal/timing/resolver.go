package timing

import (
	"sort"

	"github.com/pkg/errors"
)

// Resolver owns the tempo map of one chart. Measures must be visited in
// order with BeginMeasure, AddAnchor, Resolve and EndMeasure; the cursor into
// the anchor list only moves forward.
type Resolver struct {
	anchors    []Anchor
	signatures []Signature
	// defaultStart is set while anchors[0] is the header tempo, which a chart
	// anchor at position 0 may still replace.
	defaultStart bool
	cursor       int
	unresolved   int

	measure int
	length  float64
	stops   []Stop
	clock   float64
	quarter float64
}

func NewResolver(initialBPM float64) *Resolver {
	return &Resolver{
		anchors:      []Anchor{{Position: 0, BPM: initialBPM}},
		defaultStart: true,
		unresolved:   -1,
		length:       1,
	}
}

// BeginMeasure starts measure with the given length multiplier and stops.
func (r *Resolver) BeginMeasure(measure int, length float64, stops []Stop) {
	r.measure = measure
	r.length = length
	r.stops = append(r.stops[:0], stops...)
	sortStops(r.stops)
	r.unresolved = len(r.anchors)
}

// AddAnchor adds a tempo change inside the current measure. An occupied
// position keeps its first tempo and reports ErrTempoAnchorCollision.
func (r *Resolver) AddAnchor(position, bpm float64) error {
	if position == 0 && r.defaultStart {
		r.anchors[0].BPM = bpm
		r.defaultStart = false
		return nil
	}
	for i := len(r.anchors) - 1; i >= 0; i-- {
		if r.anchors[i].Position < float64(r.measure) {
			break
		}
		if r.anchors[i].Position == position {
			return errors.Wrapf(ErrTempoAnchorCollision, "position %v keeps %v BPM, dropping %v BPM",
				position, r.anchors[i].BPM, bpm)
		}
	}
	r.anchors = append(r.anchors, Anchor{Position: position, BPM: bpm})
	return nil
}

// Resolve sorts the anchors added in this measure and assigns their seconds.
func (r *Resolver) Resolve() {
	fresh := r.anchors[r.unresolved:]
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Position < fresh[j].Position })

	start := float64(r.measure)
	for r.cursor+1 < len(r.anchors) && r.anchors[r.cursor+1].Position <= start {
		r.cursor++
	}
	for i := r.unresolved; i < len(r.anchors); i++ {
		a := &r.anchors[i]
		a.Seconds = r.clock + r.OffsetSeconds(a.Position)
		a.Quarter = r.quarter + (a.Position-start)*4*r.length
	}
	r.unresolved = len(r.anchors)
}

// OffsetSeconds returns the time from the start of the current measure to
// position.
func (r *Resolver) OffsetSeconds(position float64) float64 {
	return OffsetSeconds(float64(r.measure), position, r.anchors[r.cursor:], r.stops, r.length)
}

// Seconds returns the absolute time of a position in the current measure.
func (r *Resolver) Seconds(position float64) float64 {
	return r.clock + r.OffsetSeconds(position)
}

// MarkSignature records a measure-length marker at the current measure start.
func (r *Resolver) MarkSignature(multiplier float64) {
	r.signatures = append(r.signatures, Signature{
		Measure:    r.measure,
		Multiplier: multiplier,
		Seconds:    r.clock,
		Quarter:    r.quarter,
	})
}

// EndMeasure advances the clock to the start of the next measure.
func (r *Resolver) EndMeasure() {
	r.clock += r.OffsetSeconds(float64(r.measure + 1))
	r.quarter += 4 * r.length
}

// Clock is the absolute time at the start of the current measure.
func (r *Resolver) Clock() float64 { return r.clock }

// Anchors returns the resolved tempo anchors in position order.
func (r *Resolver) Anchors() []Anchor {
	return append([]Anchor(nil), r.anchors...)
}

func (r *Resolver) Signatures() []Signature {
	return append([]Signature(nil), r.signatures...)
}
