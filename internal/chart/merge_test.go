package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeIncomingWinsUnlessEmpty(t *testing.T) {
	assert.Equal(t, []string{"01", "05"}, Merge([]string{"01", "00"}, []string{"00", "05"}))
	assert.Equal(t, []string{"02"}, Merge([]string{"01"}, []string{"02"}))
}

func TestMergeResamplesToLCMGrid(t *testing.T) {
	got := Merge([]string{"01", "02"}, []string{"0A", "00", "0B"})
	// grid of 6: existing lands on 0,3; incoming on 0,2,4
	assert.Equal(t, []string{"0A", "00", "00", "02", "0B", "00"}, got)
}

func TestMergeWithoutExistingCopies(t *testing.T) {
	in := []string{"01", "02"}
	got := Merge(nil, in)
	assert.Equal(t, in, got)
	got[0] = "ZZ"
	assert.Equal(t, "01", in[0], "merge must not alias its input")
}
