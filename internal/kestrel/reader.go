// Package kestrel reads and writes the Kestrel Link weather-log layout:
// a device metadata preamble, a header row, a units row, then one CSV data
// row per observation.
package kestrel

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrTruncatedLog reports a log that ends before the preamble, header
	// and units rows are complete.
	ErrTruncatedLog = errors.New("weather log truncated before data rows")

	// ErrMissingTimeField reports a header without the observation time column.
	ErrMissingTimeField = errors.New("weather log header has no time field")
)

// Row is one observation: cell values aligned to the header fields, plus the
// physical line the row was read from.
type Row struct {
	Line   int
	Values []string
}

// Reader streams a weather log. The preamble and units rows pass through as
// raw lines, data rows decode as CSV records aligned to the header width.
type Reader struct {
	cr *csv.Reader

	preamble  []string
	fields    []string
	units     string
	timeIndex int
}

// NewReader consumes the preamble, header and units rows from r and prepares
// to stream data rows. Trailing empty-named header columns are dropped; the
// remaining fields must include timeField.
func NewReader(r io.Reader, preambleLines int, timeField string) (*Reader, error) {
	br := bufio.NewReader(r)
	kr := &Reader{timeIndex: -1}

	for i := 0; i < preambleLines; i++ {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: preamble line %d", ErrTruncatedLog, i+1)
		}
		kr.preamble = append(kr.preamble, line)
	}

	header, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("%w: header row", ErrTruncatedLog)
	}

	fields, err := csv.NewReader(strings.NewReader(header)).Read()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	kr.fields = fields

	for i, f := range fields {
		if f == timeField {
			kr.timeIndex = i
			break
		}
	}
	if kr.timeIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingTimeField, timeField)
	}

	if kr.units, err = readLine(br); err != nil {
		return nil, fmt.Errorf("%w: units row", ErrTruncatedLog)
	}

	kr.cr = csv.NewReader(br)
	kr.cr.FieldsPerRecord = -1

	return kr, nil
}

// Next returns the next data row, io.EOF after the last one. Rows shorter
// than the header pad with empty cells; longer rows are accepted only when
// the overflow cells are empty.
func (r *Reader) Next() (Row, error) {
	rec, err := r.cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("read row: %w", err)
	}

	// FieldPos counts lines from just past the units row, including
	// blank ones the CSV layer skips.
	line, _ := r.cr.FieldPos(0)
	line += len(r.preamble) + 2

	switch {
	case len(rec) < len(r.fields):
		padded := make([]string, len(r.fields))
		copy(padded, rec)
		rec = padded

	case len(rec) > len(r.fields):
		for _, cell := range rec[len(r.fields):] {
			if cell != "" {
				return Row{}, fmt.Errorf("line %d: row has %d values, header has %d fields",
					line, len(rec), len(r.fields))
			}
		}
		rec = rec[:len(r.fields)]
	}

	return Row{Line: line, Values: rec}, nil
}

// Preamble returns the raw metadata lines above the header.
func (r *Reader) Preamble() []string { return r.preamble }

// Fields returns the header fields with trailing empty names dropped.
func (r *Reader) Fields() []string { return r.fields }

// Units returns the raw units row.
func (r *Reader) Units() string { return r.units }

// TimeIndex returns the position of the time field within Fields.
func (r *Reader) TimeIndex() int { return r.timeIndex }

// readLine returns the next line without its EOL, normalizing CRLF input.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
