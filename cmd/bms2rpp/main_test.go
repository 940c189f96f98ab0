package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/bms2rpp-go/internal/audio"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kick.wav"), audio.EncodePCM16WAV(make([]int16, 4410*2), 44100, 2), 0o644))
	chart := filepath.Join(dir, "song.bme")
	require.NoError(t, os.WriteFile(chart, []byte("#BPM 140\n#WAV01 kick.wav\n#BPM01 70\n#00011:0101\n#00108:01\n"), 0o644))

	rppPath := filepath.Join(dir, "out.rpp")
	midiPath := filepath.Join(dir, "tempo.mid")
	pngPath := filepath.Join(dir, "preview.png")
	out, err := execute(t, "convert", chart, rppPath, "--midi", midiPath, "--preview", pngPath, "--encoding", "utf-8")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 tracks, 2 samples")

	project, err := os.ReadFile(rppPath)
	require.NoError(t, err)
	assert.Contains(t, string(project), `FILE "kick.wav"`)
	assert.Contains(t, string(project), "<TEMPOENVEX")
	for _, p := range []string{midiPath, pngPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestConvertFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "song.bms")
	require.NoError(t, os.WriteFile(chart, []byte("#WAV01 gone.wav\n#00011:01\n"), 0o644))
	rppPath := filepath.Join(dir, "out.rpp")

	_, err := execute(t, "convert", chart, rppPath)
	require.Error(t, err)
	_, statErr := os.Stat(rppPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "song.rpp", defaultOutput(filepath.Join("charts", "song.bms")))
	assert.Equal(t, "a.b.rpp", defaultOutput("a.b.dtx"))
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	page := make([]byte, 27)
	copy(page, "OggS")
	binary.LittleEndian.PutUint32(page[14:], 1)
	page[26] = 1
	page = append(page, 3, 'a', 'b', 'c')
	in := filepath.Join(dir, "chunked.wav")
	require.NoError(t, os.WriteFile(in, append([]byte("RIFF....WAVE"), page...), 0o644))

	outPath := filepath.Join(dir, "out.ogg")
	out, err := execute(t, "extract-ogg", in, outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "1 pages"), out)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, page, got)
}
