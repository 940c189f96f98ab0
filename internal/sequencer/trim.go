package sequencer

import (
	"sort"

	"github.com/cbegin/bms2rpp-go/internal/chart"
)

// groupFor returns the overlap-trimming group of a note. An empty group is
// never trimmed.
func groupFor(d chart.Dialect, lane chart.Lane, code string) string {
	if d.Grouping == chart.GroupPerKeysound {
		return "keysound:" + code
	}
	switch lane.Class {
	case chart.ClassBGM:
		return "bgm:" + lane.Channel
	case chart.ClassGuitar:
		return "guitar"
	case chart.ClassBass:
		return "bass"
	}
	return ""
}

// Trim shortens samples so that no two samples of the same group overlap.
func Trim(samples []*Sample) {
	groups := map[string][]*Sample{}
	for _, s := range samples {
		if s.Group == "" {
			continue
		}
		groups[s.Group] = append(groups[s.Group], s)
	}
	for _, group := range groups {
		sortByPosition(group)
		TrimSorted(group)
	}
}

// TrimSorted trims a group already sorted by position. Running it again on
// its own output changes nothing.
func TrimSorted(group []*Sample) {
	for i := 0; i+1 < len(group); i++ {
		cur, next := group[i], group[i+1]
		if cur.Position+cur.Length > next.Position {
			cur.Length = next.Position - cur.Position
		}
	}
}

func sortByPosition(samples []*Sample) {
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Position < samples[j].Position })
}
