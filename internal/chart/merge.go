package chart

import "github.com/cbegin/bms2rpp-go/internal/util"

// Merge combines two declarations of the same channel in the same measure.
// Both are laid on a grid of the least common multiple of their lengths and
// incoming codes win wherever they are not empty.
func Merge(existing, incoming []string) []string {
	if len(existing) == 0 {
		return append([]string(nil), incoming...)
	}
	if len(incoming) == 0 {
		return append([]string(nil), existing...)
	}
	size := util.LCM(len(existing), len(incoming))
	oldStep := size / len(existing)
	newStep := size / len(incoming)
	out := make([]string, size)
	for i := range out {
		oldCode, newCode := EmptyCode, EmptyCode
		if i%oldStep == 0 {
			oldCode = existing[i/oldStep]
		}
		if i%newStep == 0 {
			newCode = incoming[i/newStep]
		}
		if newCode == EmptyCode {
			out[i] = oldCode
		} else {
			out[i] = newCode
		}
	}
	return out
}
