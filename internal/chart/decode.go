package chart

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const DefaultEncoding = "shift_jis"

// EncodingFromEnv returns BMS2RPP_ENCODING, falling back to Shift-JIS.
func EncodingFromEnv() string {
	if enc := strings.TrimSpace(os.Getenv("BMS2RPP_ENCODING")); enc != "" {
		return enc
	}
	return DefaultEncoding
}

// NewDecodingReader decodes chart bytes in the named encoding. A UTF-8 or
// UTF-16 byte order mark overrides the name.
func NewDecodingReader(r io.Reader, name string) (io.Reader, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown chart encoding %q", name)
	}
	return transform.NewReader(r, xunicode.BOMOverride(enc.NewDecoder())), nil
}
