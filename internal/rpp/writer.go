package rpp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type writerConfig struct {
	newID func() uuid.UUID
}

type Option func(*writerConfig)

// WithIDGenerator replaces the random track and item GUIDs.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(c *writerConfig) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// SequentialIDs returns a generator of predictable GUIDs for golden output.
func SequentialIDs() func() uuid.UUID {
	var n uint64
	return func() uuid.UUID {
		n++
		var id uuid.UUID
		for i := 0; i < 8; i++ {
			id[15-i] = byte(n >> (8 * i))
		}
		return id
	}
}

type writer struct {
	w     *bufio.Writer
	cfg   writerConfig
	depth int
}

// Write renders p to w.
func Write(w io.Writer, p *Project, opts ...Option) error {
	cfg := writerConfig{newID: uuid.New}
	for _, opt := range opts {
		opt(&cfg)
	}
	pw := &writer{w: bufio.NewWriter(w), cfg: cfg}
	pw.project(p)
	return errors.Wrap(pw.w.Flush(), "write project")
}

func (pw *writer) project(p *Project) {
	pw.open("REAPER_PROJECT")
	pw.line("TEMPO", num(p.InitialBPM), "4", "4")
	pw.line("MASTERTRACKVIEW", "1", "0.6667", "0.5", "0.5", "0", "0", "0", "0", "0", "0")
	pw.line("MASTER_VOLUME", num(p.MasterVolume/100), "0", "-1", "-1", "1")
	pw.line("VIDEO_CONFIG", "0", "0", "256")
	pw.line("PANMODE", "3")

	if len(p.Tempo) > 0 || len(p.Signatures) > 0 {
		pw.open("TEMPOENVEX")
		for _, t := range p.Tempo {
			pw.line("PT", num(t.Seconds), num(t.BPM), "1")
		}
		// den*65536+num packs the time signature into the fifth field
		for _, s := range p.Signatures {
			pw.line("PT", num(s.Seconds), "0", "1", strconv.Itoa(s.Den*65536+s.Num), "0", "3")
		}
		pw.close()
	}

	for _, t := range p.Tracks {
		pw.track(t)
	}
	pw.close()
}

func (pw *writer) track(t Track) {
	pw.open("TRACK")
	pw.line("NAME", quote(t.Name))
	pw.line("TRACKID", guid(pw.cfg.newID()))
	pw.line("VOLPAN", num(t.Volume), num(t.Pan), "-1", "-1", "1")
	for _, it := range t.Items {
		pw.open("ITEM")
		pw.line("POSITION", num(it.Position))
		pw.line("LENGTH", num(it.Length))
		pw.line("IGUID", guid(pw.cfg.newID()))
		pw.line("NAME", quote(it.Name))
		pw.open("SOURCE", SourceType(it.File))
		pw.line("FILE", quote(it.File))
		pw.close()
		pw.close()
	}
	pw.close()
}

func (pw *writer) open(tag string, args ...string) {
	pw.line("<"+tag, args...)
	pw.depth++
}

func (pw *writer) close() {
	pw.depth--
	pw.line(">")
}

func (pw *writer) line(tag string, args ...string) {
	pw.w.WriteString(strings.Repeat("  ", pw.depth))
	pw.w.WriteString(tag)
	for _, a := range args {
		if a == "" {
			continue
		}
		pw.w.WriteByte(' ')
		pw.w.WriteString(a)
	}
	pw.w.WriteByte('\n')
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote wraps s in the quote character REAPER expects for it.
func quote(s string) string {
	switch {
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	}
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

func guid(id uuid.UUID) string {
	return fmt.Sprintf("{%s}", strings.ToUpper(id.String()))
}
