package diag

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSinkKeepsAndLogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(slog.New(slog.NewTextHandler(&buf, nil)))
	sink.Warn(errors.New("first"), "line", 3)
	sink.Warn(errors.New("second"))

	got := sink.Warnings()
	if len(got) != 2 || got[0].Error() != "first" || got[1].Error() != "second" {
		t.Fatalf("unexpected warnings %v", got)
	}
	if !strings.Contains(buf.String(), "line=3") {
		t.Fatalf("expected attributes in log output, got %q", buf.String())
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	sink := NewSink(nil)
	sink.Warn(errors.New("quiet"))
	sink.Debug("nothing")
	if len(sink.Warnings()) != 1 {
		t.Fatalf("expected warning to be recorded")
	}
}
