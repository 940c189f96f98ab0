// Package preview draws a timeline as a PNG: one row per keysound, one box
// per placed sample, tempo changes marked along the top.
package preview

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cbegin/bms2rpp-go/internal/sequencer"
)

type Color struct {
	R float64
	G float64
	B float64
}

var palette = []Color{
	{0.95, 0.55, 0.2},
	{0.3, 0.75, 0.4},
	{0.3, 0.55, 0.9},
	{0.8, 0.4, 0.75},
	{0.85, 0.8, 0.3},
}

type Config struct {
	Width      int
	RowHeight  int
	LabelWidth int
	HeaderSize int
	FontSize   float64
	// Labels overrides the row label of a keysound code.
	Labels map[string]string
}

func DefaultConfig() Config {
	return Config{
		Width:      1600,
		RowHeight:  16,
		LabelWidth: 140,
		HeaderSize: 24,
		FontSize:   11,
	}
}

// Size returns the image dimensions Render produces for tl.
func (c Config) Size(tl *sequencer.Timeline) (int, int) {
	rows := len(tl.Tracks)
	if rows == 0 {
		rows = 1
	}
	return c.Width, c.HeaderSize + rows*c.RowHeight
}

// Render writes tl as a PNG image.
func Render(w io.Writer, tl *sequencer.Timeline, cfg Config) error {
	width, height := cfg.Size(tl)
	plot := float64(width - cfg.LabelWidth - 10)
	if plot <= 0 {
		return errors.Errorf("preview width %d leaves no room for the timeline", width)
	}
	end := math.Max(tl.End(), 1)
	x := func(seconds float64) float64 {
		return float64(cfg.LabelWidth) + seconds/end*plot
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return errors.Wrap(err, "parse font")
	}
	dc := gg.NewContext(width, height)
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: cfg.FontSize}))

	dc.SetRGB(0.17, 0.17, 0.17)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	for _, a := range tl.Tempo {
		ax := x(a.Seconds)
		dc.SetRGBA(1, 1, 1, 0.25)
		dc.SetLineWidth(0.5)
		dc.DrawLine(ax, float64(cfg.HeaderSize), ax, float64(height))
		dc.Stroke()
		dc.SetRGBA(1, 1, 1, 0.8)
		dc.DrawString(fmt.Sprintf("%g", a.BPM), ax+2, float64(cfg.HeaderSize)-8)
	}

	rh := float64(cfg.RowHeight)
	for i, tr := range tl.Tracks {
		y := float64(cfg.HeaderSize) + float64(i)*rh
		label := tr.Code
		if l, ok := cfg.Labels[tr.Code]; ok {
			label = l
		}
		dc.SetRGBA(1, 1, 1, 0.7)
		dc.DrawString(label, 4, y+rh-4)

		c := palette[i%len(palette)]
		for _, s := range tr.Samples {
			dc.DrawRectangle(x(s.Position), y+1, math.Max(s.Length/end*plot, 1), rh-2)
			dc.SetRGB(c.R, c.G, c.B)
			dc.Fill()
		}
	}
	return errors.Wrap(dc.EncodePNG(w), "encode preview")
}
