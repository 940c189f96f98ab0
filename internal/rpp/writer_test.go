package rpp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteGolden(t *testing.T) {
	p := &Project{
		InitialBPM:   130,
		MasterVolume: 100,
		Tempo:        []TempoPoint{{Seconds: 0, BPM: 130}, {Seconds: 1.5, BPM: 65}},
		Signatures:   []SignaturePoint{{Seconds: 0, Num: 2, Den: 4}, {Seconds: 2, Num: 4, Den: 4}},
		Tracks: []Track{
			{
				Name:   "kick",
				Volume: 1 / 3.0,
				Items: []Item{
					{Position: 0, Length: 0.5, Name: "kick.wav", File: "kick.wav"},
					{Position: 1, Length: 0.25, Name: "kick.wav", File: "kick.wav"},
				},
			},
			{
				Name:   "pad",
				Volume: 0.5,
				Pan:    -0.25,
				Items:  []Item{{Position: 0.75, Length: 2, Name: "pad.ogg", File: "sub/pad.ogg"}},
			},
		},
	}
	var buf bytes.Buffer
	if err := Write(&buf, p, WithIDGenerator(SequentialIDs())); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join("testdata", "two_tracks.rpp"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if got, want := buf.String(), string(raw); got != want {
		t.Fatalf("golden mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestConstantTempoEnvelope(t *testing.T) {
	var buf bytes.Buffer
	p := &Project{InitialBPM: 150, MasterVolume: 50, Tempo: []TempoPoint{{BPM: 150}}}
	if err := Write(&buf, p); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "  <TEMPOENVEX\n    PT 0 150 1\n  >\n") {
		t.Fatalf("expected a single-point tempo envelope:\n%s", out)
	}
	if !strings.Contains(out, "MASTER_VOLUME 0.5 0 -1 -1 1\n") {
		t.Fatalf("master volume not scaled:\n%s", out)
	}

	buf.Reset()
	if err := Write(&buf, &Project{InitialBPM: 150}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if strings.Contains(buf.String(), "TEMPOENVEX") {
		t.Fatalf("no tempo points should mean no envelope:\n%s", buf.String())
	}
}

func TestRandomIDsAreUnique(t *testing.T) {
	var buf bytes.Buffer
	p := &Project{Tracks: []Track{{Name: "a"}, {Name: "b"}}}
	if err := Write(&buf, p); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	seen := map[string]bool{}
	for _, line := range strings.Split(buf.String(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "TRACKID ") {
			if seen[line] {
				t.Fatalf("duplicate %s", line)
			}
			seen[line] = true
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 track ids, got %d", len(seen))
	}
}

func TestHelpers(t *testing.T) {
	cases := []struct {
		file, source, name string
	}{
		{"kick.wav", "WAVE", "kick"},
		{"KICK.WAV", "WAVE", "KICK"},
		{`sub\snare.ogg`, "VORBIS", "snare"},
		{"hat.flac", "", "hat"},
	}
	for _, tc := range cases {
		if got := SourceType(tc.file); got != tc.source {
			t.Fatalf("SourceType(%q) = %q, want %q", tc.file, got, tc.source)
		}
		if got := TrackName(tc.file); got != tc.name {
			t.Fatalf("TrackName(%q) = %q, want %q", tc.file, got, tc.name)
		}
	}
	if got := quote(`say "hi"`); got != `'say "hi"'` {
		t.Fatalf("quote = %s", got)
	}
}
