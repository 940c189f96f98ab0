package chart

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownDialect = errors.New("unknown chart dialect")

type GroupingPolicy int

const (
	// GroupPerKeysound trims overlaps within each keysound.
	GroupPerKeysound GroupingPolicy = iota
	// GroupPerInstrument pools channels sharing an instrument role.
	GroupPerInstrument
)

type ChannelClass int

const (
	ClassKey ChannelClass = iota
	ClassBGM
	ClassDrum
	ClassGuitar
	ClassBass
)

type Lane struct {
	Channel string
	Class   ChannelClass
}

// Dialect describes what a chart family supports. It is chosen once when a
// chart is loaded and passed by value from then on.
type Dialect struct {
	Name              string
	Lanes             []Lane
	Grouping          GroupingPolicy
	TrackVolume       float64
	PanVolumeMetadata bool
	Stops             bool
}

func BMS() Dialect {
	lanes := []Lane{{Channel: ChannelBGM, Class: ClassBGM}}
	for _, ch := range []string{"11", "12", "13", "14", "15", "16", "18", "19", "21", "22", "23", "24", "25", "26", "28", "29"} {
		lanes = append(lanes, Lane{Channel: ch, Class: ClassKey})
	}
	return Dialect{
		Name:        "bms",
		Lanes:       lanes,
		Grouping:    GroupPerKeysound,
		TrackVolume: 1 / 3.0,
		Stops:       true,
	}
}

func DTX() Dialect {
	var lanes []Lane
	add := func(class ChannelClass, channels ...string) {
		for _, ch := range channels {
			lanes = append(lanes, Lane{Channel: ch, Class: class})
		}
	}
	add(ClassBGM, ChannelBGM)
	add(ClassBGM, channelRange("6", "123456789")...)
	add(ClassBGM, channelRange("7", "0123456789")...)
	add(ClassBGM, channelRange("8", "0123456789")...)
	add(ClassBGM, channelRange("9", "012")...)
	add(ClassDrum, channelRange("1", "123456789A")...)
	add(ClassGuitar, channelRange("2", "01234567")...)
	add(ClassBass, channelRange("A", "01234567")...)
	return Dialect{
		Name:              "dtx",
		Lanes:             lanes,
		Grouping:          GroupPerInstrument,
		TrackVolume:       1 / 2.0,
		PanVolumeMetadata: true,
	}
}

func channelRange(prefix string, digits string) []string {
	out := make([]string, 0, len(digits))
	for _, d := range digits {
		out = append(out, prefix+string(d))
	}
	return out
}

// DialectForPath selects the dialect from a chart file extension.
func DialectForPath(path string) (Dialect, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bms", ".bme", ".bml":
		return BMS(), nil
	case ".dtx":
		return DTX(), nil
	}
	return Dialect{}, errors.Wrapf(ErrUnknownDialect, "unsupported chart file type %q", filepath.Ext(path))
}

func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bms", "bme", "bml":
		return BMS(), nil
	case "dtx":
		return DTX(), nil
	}
	return Dialect{}, errors.Wrapf(ErrUnknownDialect, "invalid dialect %q (expected bms|dtx)", name)
}

// Class reports the class of a playable channel.
func (d Dialect) Class(channel string) (ChannelClass, bool) {
	for _, l := range d.Lanes {
		if l.Channel == channel {
			return l.Class, true
		}
	}
	return 0, false
}

func (d Dialect) stores(channel string) bool {
	switch channel {
	case ChannelTempo, ChannelExtendedTempo:
		return true
	case ChannelStop:
		return d.Stops
	}
	_, ok := d.Class(channel)
	return ok
}
