// Package audio finds keysound files next to a chart and measures how long
// they play.
package audio

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var ErrFileUnavailable = errors.New("audio file unavailable")

// bytesPerFrame is the size of one decoded frame: 16-bit samples, two channels.
const bytesPerFrame = 4

type Prober interface {
	Duration(path string) (float64, error)
}

// FileProber decodes WAV and Ogg Vorbis files at their native sample rate.
type FileProber struct{}

func (FileProber) Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(ErrFileUnavailable, "%v", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, _ := br.Peek(4)
	var length int64
	var rate int
	switch string(magic) {
	case "RIFF":
		s, err := wav.DecodeWithoutResampling(br)
		if err != nil {
			return 0, errors.Wrapf(ErrFileUnavailable, "decode wav %s: %v", path, err)
		}
		length, rate = s.Length(), s.SampleRate()
	case "OggS":
		s, err := vorbis.DecodeWithoutResampling(br)
		if err != nil {
			return 0, errors.Wrapf(ErrFileUnavailable, "decode vorbis %s: %v", path, err)
		}
		length, rate = s.Length(), s.SampleRate()
	default:
		return 0, errors.Wrapf(ErrFileUnavailable, "%s: unrecognized audio format", path)
	}
	if rate <= 0 {
		return 0, errors.Wrapf(ErrFileUnavailable, "%s: sample rate %d", path, rate)
	}
	return float64(length) / float64(bytesPerFrame*rate), nil
}

// Locate resolves a declared keysound file inside dir. Charts often declare
// a .wav that ships as .ogg, so the stem is tried with both extensions
// before the declared name itself.
func Locate(dir, name string) (string, error) {
	name = filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, candidate := range []string{stem + ".wav", stem + ".ogg", name} {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", errors.Wrapf(ErrFileUnavailable, "%s not found in %s", name, dir)
}

// Source is a located keysound file and its natural duration in seconds.
type Source struct {
	Path     string
	Duration float64
}

// ProbeAll locates and measures every file in files, keyed by keysound code.
// At most jobs probes run at once; the first failure cancels the rest.
func ProbeAll(ctx context.Context, dir string, files map[string]string, p Prober, jobs int) (map[string]Source, error) {
	if p == nil {
		p = FileProber{}
	}
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	var mu sync.Mutex
	out := make(map[string]Source, len(files))
	for code, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := Locate(dir, name)
			if err != nil {
				return errors.Wrapf(err, "keysound %s", code)
			}
			d, err := p.Duration(path)
			if err != nil {
				return errors.Wrapf(err, "keysound %s", code)
			}
			mu.Lock()
			out[code] = Source{Path: path, Duration: d}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
