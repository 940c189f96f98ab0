// Package rpp renders sample placements as a REAPER project file.
package rpp

import (
	"path/filepath"
	"strings"
)

// Project is everything the writer needs. Times are absolute seconds.
type Project struct {
	InitialBPM   float64
	MasterVolume float64 // percent
	Tempo        []TempoPoint
	Signatures   []SignaturePoint
	Tracks       []Track
}

type TempoPoint struct {
	Seconds float64
	BPM     float64
}

// SignaturePoint starts a Num/Den time signature at Seconds.
type SignaturePoint struct {
	Seconds float64
	Num     int
	Den     int
}

type Track struct {
	Name   string
	Volume float64
	Pan    float64
	Items  []Item
}

type Item struct {
	Position float64
	Length   float64
	Name     string
	File     string
}

// SourceType maps a file extension to the REAPER source kind. Unknown
// extensions yield an empty kind and REAPER sniffs the file itself.
func SourceType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".wav":
		return "WAVE"
	case ".ogg":
		return "VORBIS"
	}
	return ""
}

// TrackName is the declared keysound file without its extension.
func TrackName(file string) string {
	base := file
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
