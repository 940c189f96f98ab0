package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileProberWAV(t *testing.T) {
	dir := t.TempDir()
	samples := make([]int16, 22050*2)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	path := writeFile(t, dir, "tone.wav", EncodePCM16WAV(samples, 44100, 2))

	d, err := FileProber{}.Duration(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, d, 1e-9)
}

func TestFileProberRejectsUnknownData(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "junk.wav", []byte("not audio at all"))

	_, err := FileProber{}.Duration(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileUnavailable))

	_, err = FileProber{}.Duration(filepath.Join(dir, "missing.wav"))
	assert.True(t, errors.Is(err, ErrFileUnavailable))
}

func TestLocateOrder(t *testing.T) {
	dir := t.TempDir()
	wavPath := writeFile(t, dir, "kick.wav", []byte("x"))
	writeFile(t, dir, "kick.ogg", []byte("x"))
	oggPath := writeFile(t, dir, "snare.ogg", []byte("x"))
	oddPath := writeFile(t, dir, "hat.mp3", []byte("x"))
	nestedPath := writeFile(t, dir, "sub/clap.wav", []byte("x"))

	cases := []struct {
		declared string
		want     string
	}{
		{"kick.ogg", wavPath},
		{"kick.wav", wavPath},
		{"snare.wav", oggPath},
		{"hat.mp3", oddPath},
		{`sub\clap.wav`, nestedPath},
	}
	for _, tc := range cases {
		got, err := Locate(dir, tc.declared)
		require.NoError(t, err, tc.declared)
		assert.Equal(t, tc.want, got, tc.declared)
	}

	_, err := Locate(dir, "missing.wav")
	assert.True(t, errors.Is(err, ErrFileUnavailable))
}

type fakeProber struct {
	durations map[string]float64
	calls     atomic.Int32
}

func (p *fakeProber) Duration(path string) (float64, error) {
	p.calls.Add(1)
	d, ok := p.durations[filepath.Base(path)]
	if !ok {
		return 0, ErrFileUnavailable
	}
	return d, nil
}

func TestProbeAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.wav", []byte("x"))
	writeFile(t, dir, "b.ogg", []byte("x"))
	p := &fakeProber{durations: map[string]float64{"a.wav": 1.5, "b.ogg": 0.25}}

	got, err := ProbeAll(context.Background(), dir, map[string]string{"01": "a.wav", "02": "b.wav"}, p, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]Source{
		"01": {Path: filepath.Join(dir, "a.wav"), Duration: 1.5},
		"02": {Path: filepath.Join(dir, "b.ogg"), Duration: 0.25},
	}, got)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestProbeAllFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.wav", []byte("x"))
	p := &fakeProber{durations: map[string]float64{"a.wav": 1}}

	got, err := ProbeAll(context.Background(), dir, map[string]string{"01": "a.wav", "02": "gone.wav"}, p, 4)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrFileUnavailable))
	assert.Contains(t, err.Error(), "keysound 02")
}

func TestProbeAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProber{}
	_, err := ProbeAll(ctx, t.TempDir(), map[string]string{"01": "a.wav"}, p, 1)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.EqualValues(t, 0, p.calls.Load())
}
