// Package oggextract recovers a playable Ogg stream from a "chunked vorbis"
// WAV, where Ogg pages are interleaved with container data and a filler
// logical stream.
package oggextract

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var capturePattern = []byte("OggS")

const (
	// pages of this stream are filler and must not reach the output
	junkSerial uint32 = 0xFFFFFFFF

	headerSize   = 27
	serialOffset = 14
	segmentsAt   = 26
)

type Stats struct {
	Pages     int
	Skipped   int
	Bytes     int64
	Truncated bool
}

// Extract copies every Ogg page found in r to w, dropping filler pages. A
// page cut short by the end of input is discarded and reported in Stats.
func Extract(r io.Reader, w io.Writer) (Stats, error) {
	var st Stats
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	header := make([]byte, headerSize)
	var page []byte

	for {
		ok, err := seekCapture(br)
		if err != nil {
			return st, err
		}
		if !ok {
			break
		}
		copy(header, capturePattern)
		if _, err := io.ReadFull(br, header[len(capturePattern):]); err != nil {
			if truncated(err) {
				st.Truncated = true
				break
			}
			return st, errors.Wrap(err, "read page header")
		}
		segments := make([]byte, header[segmentsAt])
		if _, err := io.ReadFull(br, segments); err != nil {
			if truncated(err) {
				st.Truncated = true
				break
			}
			return st, errors.Wrap(err, "read segment table")
		}
		bodySize := 0
		for _, s := range segments {
			bodySize += int(s)
		}
		page = append(append(page[:0], header...), segments...)
		page = append(page, make([]byte, bodySize)...)
		if _, err := io.ReadFull(br, page[len(page)-bodySize:]); err != nil {
			if truncated(err) {
				st.Truncated = true
				break
			}
			return st, errors.Wrap(err, "read page body")
		}

		if binary.LittleEndian.Uint32(header[serialOffset:]) == junkSerial {
			st.Skipped++
			continue
		}
		n, err := bw.Write(page)
		st.Bytes += int64(n)
		if err != nil {
			return st, errors.Wrap(err, "write page")
		}
		st.Pages++
	}
	return st, errors.Wrap(bw.Flush(), "flush output")
}

// seekCapture consumes input up to and including the next capture pattern.
// It reports false at end of input.
func seekCapture(br *bufio.Reader) (bool, error) {
	window := make([]byte, 0, len(capturePattern))
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "scan for page")
		}
		if len(window) == len(capturePattern) {
			window = window[1:]
		}
		window = append(window, b)
		if bytes.Equal(window, capturePattern) {
			return true, nil
		}
	}
}

func truncated(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
