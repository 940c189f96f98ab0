package chart

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cbegin/bms2rpp-go/internal/diag"
)

var ErrMalformedDirective = errors.New("malformed directive")

const maxLineBytes = 4 << 20

type Parser struct {
	dialect Dialect
	sink    *diag.Sink
}

func NewParser(d Dialect, sink *diag.Sink) *Parser {
	if sink == nil {
		sink = diag.NewSink(nil)
	}
	return &Parser{dialect: d, sink: sink}
}

// parseState carries the definitions that are applied to keysounds only
// once the whole document has been read.
type parseState struct {
	chart   *Chart
	volumes map[string]float64
	pans    map[string]float64
}

// Parse reads decoded chart text. Malformed lines are reported to the sink
// and skipped; only read failures are returned.
func (p *Parser) Parse(r io.Reader) (*Chart, error) {
	st := &parseState{
		chart:   newChart(p.dialect),
		volumes: map[string]float64{},
		pans:    map[string]float64{},
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		if err := p.parseLine(st, line[1:]); err != nil {
			p.sink.Warn(errors.Wrapf(err, "line %d", lineNo), "line", lineNo, "text", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read chart")
	}
	for code, ks := range st.chart.Keysounds {
		if v, ok := st.volumes[code]; ok {
			ks.Volume = v
		}
		if v, ok := st.pans[code]; ok {
			ks.Pan = v
		}
		st.chart.Keysounds[code] = ks
	}
	return st.chart, nil
}

func (p *Parser) ParseString(text string) (*Chart, error) {
	return p.Parse(strings.NewReader(text))
}

func (p *Parser) parseLine(st *parseState, body string) error {
	c := st.chart
	if isChannelLine(body) {
		return p.parseChannel(c, body)
	}
	if v, ok := scalarValue(body, "BPM"); ok {
		bpm, err := parsePositive(v)
		if err != nil {
			return errors.Wrap(err, "#BPM")
		}
		c.InitialBPM = bpm
		return nil
	}
	if v, ok := scalarValue(body, "VOLWAV"); ok {
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(ErrMalformedDirective, "#VOLWAV %q", v)
		}
		c.MasterVolume = vol
		return nil
	}
	if code, v, ok := definition(body, "WAV"); ok {
		if v == "" {
			return errors.Wrapf(ErrMalformedDirective, "#WAV%s without file", code)
		}
		c.Keysounds[code] = Keysound{Code: code, File: v, Volume: 1, Pan: 0}
		return nil
	}
	if code, v, ok := definition(body, "BPM"); ok {
		bpm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(ErrMalformedDirective, "#BPM%s %q", code, v)
		}
		c.TempoTable[code] = bpm
		return nil
	}
	if p.dialect.Stops {
		if code, v, ok := definition(body, "STOP"); ok {
			ticks, err := strconv.ParseFloat(v, 64)
			if err != nil || ticks < 0 {
				return errors.Wrapf(ErrMalformedDirective, "#STOP%s %q", code, v)
			}
			c.StopTable[code] = ticks
			return nil
		}
	}
	if p.dialect.PanVolumeMetadata {
		if code, v, ok := definition(body, "VOLUME"); ok {
			vol, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrapf(ErrMalformedDirective, "#VOLUME%s %q", code, v)
			}
			st.volumes[code] = vol / 100
			return nil
		}
		if code, v, ok := definition(body, "PAN"); ok {
			pan, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrapf(ErrMalformedDirective, "#PAN%s %q", code, v)
			}
			st.pans[code] = pan / 100
			return nil
		}
	}
	return nil
}

func (p *Parser) parseChannel(c *Chart, body string) error {
	measure, _ := strconv.Atoi(body[0:3])
	channel := strings.ToUpper(body[3:5])
	fields := strings.Fields(strings.TrimLeft(body[6:], ": \t"))
	if len(fields) == 0 {
		return errors.Wrapf(ErrMalformedDirective, "channel %03d%s without data", measure, channel)
	}
	data := strings.ToUpper(fields[0])
	if measure > c.MaxMeasure {
		c.MaxMeasure = measure
	}

	if channel == ChannelMeasureLength {
		l, err := parsePositive(data)
		if err != nil {
			return errors.Wrapf(err, "measure length %03d", measure)
		}
		c.MeasureLengths[measure] = l
		return nil
	}
	if !p.dialect.stores(channel) || data == EmptyCode {
		return nil
	}
	codes, err := splitCodes(data)
	if err != nil {
		return errors.Wrapf(err, "channel %03d%s", measure, channel)
	}
	key := Key{Measure: measure, Channel: channel}
	if channel == ChannelBGM {
		c.Layers[key] = append(c.Layers[key], codes)
		return nil
	}
	c.Channels[key] = Merge(c.Channels[key], codes)
	return nil
}

// isChannelLine matches "mmmcc" followed by ':' or whitespace.
func isChannelLine(body string) bool {
	if len(body) < 6 {
		return false
	}
	for i := 0; i < 3; i++ {
		if !isDigit(body[i]) {
			return false
		}
	}
	return isAlnum(body[3]) && isAlnum(body[4]) && isSeparator(body[5])
}

// scalarValue matches "#TAG value" and "#TAG: value".
func scalarValue(body, tag string) (string, bool) {
	if !hasTag(body, tag) || len(body) <= len(tag) || !isSeparator(body[len(tag)]) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(body[len(tag):], ": \t")), true
}

// definition matches "#TAGxx value" where xx is a two character code.
func definition(body, tag string) (code, value string, ok bool) {
	if !hasTag(body, tag) || len(body)-len(tag) < 3 {
		return "", "", false
	}
	at := len(tag)
	if !isAlnum(body[at]) || !isAlnum(body[at+1]) || !isSeparator(body[at+2]) {
		return "", "", false
	}
	return strings.ToUpper(body[at : at+2]), strings.TrimSpace(strings.TrimLeft(body[at+2:], ": \t")), true
}

func hasTag(body, tag string) bool {
	return len(body) >= len(tag) && strings.EqualFold(body[:len(tag)], tag)
}

func splitCodes(data string) ([]string, error) {
	if len(data)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformedDirective, "odd data length %d", len(data))
	}
	codes := make([]string, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		if !isAlnum(data[i]) || !isAlnum(data[i+1]) {
			return nil, errors.Wrapf(ErrMalformedDirective, "invalid code %q", data[i:i+2])
		}
		codes = append(codes, data[i:i+2])
	}
	return codes, nil
}

func parsePositive(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		return 0, errors.Wrapf(ErrMalformedDirective, "expected positive number, got %q", v)
	}
	return f, nil
}

func isDigit(b byte) bool     { return b >= '0' && b <= '9' }
func isSeparator(b byte) bool { return b == ':' || b == ' ' || b == '\t' }
func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
