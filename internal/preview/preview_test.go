package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/cbegin/bms2rpp-go/internal/sequencer"
	"github.com/cbegin/bms2rpp-go/internal/timing"
)

func TestRenderSize(t *testing.T) {
	tl := &sequencer.Timeline{
		InitialBPM: 120,
		Tempo:      []timing.Anchor{{BPM: 120}, {Position: 2, BPM: 90, Seconds: 4}},
		Tracks: []sequencer.Track{
			{Code: "01", Samples: []sequencer.Sample{{Position: 0, Length: 1}, {Position: 2, Length: 0.5}}},
			{Code: "02", Samples: []sequencer.Sample{{Position: 4.5, Length: 3}}},
			{Code: "0Z", Samples: []sequencer.Sample{{Position: 1, Length: 0}}},
		},
	}
	cfg := DefaultConfig()
	cfg.Width = 800
	cfg.Labels = map[string]string{"01": "kick"}

	var buf bytes.Buffer
	if err := Render(&buf, tl, cfg); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	img, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if img.Width != 800 || img.Height != cfg.HeaderSize+3*cfg.RowHeight {
		t.Fatalf("image is %dx%d", img.Width, img.Height)
	}
}

func TestRenderEmptyTimeline(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, &sequencer.Timeline{}, DefaultConfig()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
}

func TestRenderRejectsNarrowImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = cfg.LabelWidth
	if err := Render(&bytes.Buffer{}, &sequencer.Timeline{}, cfg); err == nil {
		t.Fatal("expected an error for a width with no plot area")
	}
}
