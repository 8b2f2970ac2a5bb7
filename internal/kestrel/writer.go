package kestrel

import (
	"bufio"
	"encoding/csv"
	"io"
)

// Writer emits a weather log in the layout the Reader consumes: raw preamble
// and units rows around a CSV header, then CSV data rows. Output always uses
// LF line endings.
type Writer struct {
	bw *bufio.Writer
	cw *csv.Writer
}

// NewWriter writes the fixed leading structure to w: the preamble lines, the
// header record and the units row.
func NewWriter(w io.Writer, preamble []string, fields []string, units string) (*Writer, error) {
	bw := bufio.NewWriter(w)

	for _, line := range preamble {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return nil, err
		}
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(fields); err != nil {
		return nil, err
	}
	// The units row goes through bw directly, so the header must land first.
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	if _, err := bw.WriteString(units + "\n"); err != nil {
		return nil, err
	}

	return &Writer{bw: bw, cw: cw}, nil
}

// WriteRow appends one data row.
func (w *Writer) WriteRow(values []string) error {
	return w.cw.Write(values)
}

// Flush drains buffered rows and reports any deferred write error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return err
	}

	return w.bw.Flush()
}
