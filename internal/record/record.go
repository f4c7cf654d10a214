// Package record implements field-splitting over the current input line.
// A single-space FS splits on runs of whitespace and trims the line's
// ends, a single non-space character FS splits literally on that byte,
// and the empty string splits into one field per character. Field 0 is
// always the untouched original line.
package record

import (
	"strconv"
	"strings"

	"awkvm/internal/errors"
)

// Record is the current line, split into fields under a field separator.
type Record struct {
	line   string
	fields []string
}

// Split builds a Record from raw by applying sep per the rules above.
// Multi-character separators would need regex splitting, which this
// interpreter does not do yet, so anything longer than one byte is a
// clean error rather than a silent misinterpretation.
func Split(raw string, sep string) (Record, error) {
	var fields []string
	switch {
	case sep == " ":
		fields = strings.Fields(raw)
	case sep == "":
		fields = splitChars(raw)
	case len(sep) == 1:
		fields = strings.Split(raw, sep)
	default:
		return Record{}, errors.New(errors.RuntimeError, errors.Pos{}, "field separator %q is not a single character (multi-character/regex FS is not supported)", sep)
	}
	return Record{line: raw, fields: fields}, nil
}

func splitChars(raw string) []string {
	runes := []rune(raw)
	fields := make([]string, len(runes))
	for i, r := range runes {
		fields[i] = string(r)
	}
	return fields
}

// NF reports the number of fields, i.e. the value $NF exposes.
func (r Record) NF() int { return len(r.fields) }

// Field returns field n: n==0 is the whole line, n within [1, NF()] is
// that field's text, and anything beyond NF() is the empty string —
// reading past the last field is never an error.
func (r Record) Field(n int) string {
	if n == 0 {
		return r.line
	}
	if n < 1 || n > len(r.fields) {
		return ""
	}
	return r.fields[n-1]
}

// FieldIndex converts a float64 field-variable index to an int, rejecting
// negative or non-integral indices with a RuntimeError.
func FieldIndex(n float64) (int, error) {
	if n < 0 {
		return 0, errors.New(errors.RuntimeError, errors.Pos{}, "field index %s is negative", strconv.FormatFloat(n, 'g', -1, 64))
	}
	idx := int(n)
	if float64(idx) != n {
		return 0, errors.New(errors.RuntimeError, errors.Pos{}, "field index %s is not an integer", strconv.FormatFloat(n, 'g', -1, 64))
	}
	return idx, nil
}
