package oggextract

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oggPage(serial uint32, seq uint32, body string) []byte {
	p := make([]byte, headerSize)
	copy(p, "OggS")
	binary.LittleEndian.PutUint32(p[serialOffset:], serial)
	binary.LittleEndian.PutUint32(p[18:], seq)
	p[segmentsAt] = 1
	p = append(p, byte(len(body)))
	return append(p, body...)
}

func TestExtractDropsFillerStream(t *testing.T) {
	first := oggPage(7, 0, "hello")
	second := oggPage(7, 1, "world")

	var in bytes.Buffer
	in.WriteString("RIFF\x00\x00\x00\x00WAVEfmt junkOOgg")
	in.Write(first)
	in.WriteString("data")
	in.Write(oggPage(junkSerial, 0, "filler"))
	in.Write(second)
	in.Write(oggPage(7, 2, "cut short")[:headerSize+3])

	var out bytes.Buffer
	st, err := Extract(&in, &out)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, first...), second...), out.Bytes())
	assert.Equal(t, Stats{Pages: 2, Skipped: 1, Bytes: int64(len(first) + len(second)), Truncated: true}, st)
}

func TestExtractMultiSegmentPage(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, 300)
	page := make([]byte, headerSize)
	copy(page, "OggS")
	binary.LittleEndian.PutUint32(page[serialOffset:], 3)
	page[segmentsAt] = 2
	page = append(page, 255, 45)
	page = append(page, body...)

	var out bytes.Buffer
	st, err := Extract(bytes.NewReader(page), &out)
	require.NoError(t, err)
	assert.Equal(t, page, out.Bytes())
	assert.Equal(t, 1, st.Pages)
	assert.False(t, st.Truncated)
}

func TestExtractNoPages(t *testing.T) {
	var out bytes.Buffer
	st, err := Extract(bytes.NewReader([]byte("RIFF without any vorbis")), &out)
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Equal(t, Stats{}, st)
}
