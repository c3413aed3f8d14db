package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when Options.Encoding is empty.
const DefaultEncoding = "utf-8"

type source struct {
	f *os.File
	r io.Reader
}

func (s *source) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *source) Close() error               { return s.f.Close() }

// CheckSource reports whether path names a readable regular file, using the
// same errors Load returns for it.
func CheckSource(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}
	return nil
}

// openSource opens path and returns a reader producing validated UTF-8 with
// any leading byte-order mark removed.
func openSource(path, encName string) (*source, error) {
	if encName == "" {
		encName = DefaultEncoding
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrSourceUnreadable, encName)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}

	// BOMOverride strips a UTF-8 or UTF-16 BOM and switches decoding to match
	// it; otherwise the configured decoder runs.
	var fallback transform.Transformer = transform.Nop
	if name, _ := htmlindex.Name(enc); name != "utf-8" {
		fallback = enc.NewDecoder()
	}
	t := transform.Chain(unicode.BOMOverride(fallback), encoding.UTF8Validator)
	return &source{f: f, r: transform.NewReader(f, t)}, nil
}

func newCSVReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	if delim != 0 {
		cr.Comma = delim
	}
	// Field count is checked against the header by the caller so that
	// whitespace-only rows can be skipped first.
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// classifyReadErr maps a csv.Reader error to a loader sentinel.
func classifyReadErr(err error) error {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %v", ErrMalformedRow, pe)
	}
	return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
}

func blankRow(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// cleanValue trims surrounding whitespace and stray quote characters left
// over from sloppy quoting. The value is otherwise kept verbatim.
func cleanValue(v string) string {
	return strings.Trim(v, "\"' \t\r\n")
}
