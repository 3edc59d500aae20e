// Package csvtable tokenizes one CSV member of a feed into a header and a
// single-pass sequence of raw rows.
//
// Input is normalized before tokenizing: a UTF-8 BOM is dropped and invalid
// UTF-8 is replaced with U+FFFD. Cells are never trimmed; whitespace handling
// belongs to field validation.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Header is the first row of a table.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a header from column names. The first occurrence of a
// duplicated name wins in ColumnIndex.
func NewHeader(names []string) *Header {
	h := &Header{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, name := range h.names {
		if _, ok := h.index[name]; !ok {
			h.index[name] = i
		}
	}
	return h
}

// ColumnCount returns the number of header cells.
func (h *Header) ColumnCount() int {
	return len(h.names)
}

// ColumnName returns the name at index i, or "" when out of range.
func (h *Header) ColumnName(i int) string {
	if i < 0 || i >= len(h.names) {
		return ""
	}
	return h.names[i]
}

// ColumnIndex returns the index of the first column named name, or -1.
func (h *Header) ColumnIndex(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	return -1
}

// Names returns a copy of the column names in file order.
func (h *Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Row is one data row. Row numbers are 1-based and count the header as row 1,
// so the first data row is row 2.
type Row struct {
	number int
	cells  []string
}

// NewRow builds a row from raw cells.
func NewRow(number int, cells []string) Row {
	return Row{number: number, cells: cells}
}

// Number returns the 1-based row number.
func (r Row) Number() int {
	return r.number
}

// ColumnCount returns how many cells the row has.
func (r Row) ColumnCount() int {
	return len(r.cells)
}

// Cell returns the raw value at index i. Empty cells, quoted empty cells and
// indices past the end of the row are all absent.
func (r Row) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.cells) || r.cells[i] == "" {
		return "", false
	}
	return r.cells[i], true
}

// Table is an opened CSV member.
type Table struct {
	filename string
	reader   *csv.Reader
	counter  *CountingReader
	header   *Header
	rows     int
	done     bool
}

// Open wraps r for streaming and reads the header row. A stream with no
// header row yields an empty table; a tokenizer failure on the header is
// returned as an error.
func Open(r io.Reader, filename string) (*Table, error) {
	stream, counter := WrapForStreaming(r)

	cr := csv.NewReader(stream)
	cr.Comma = ','
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = false

	t := &Table{filename: filename, reader: cr, counter: counter, rows: 1}

	record, err := cr.Read()
	if errors.Is(err, io.EOF) {
		t.done = true
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}
	t.header = NewHeader(record)
	return t, nil
}

// Filename returns the member name the table was opened for.
func (t *Table) Filename() string {
	return t.filename
}

// IsEmpty reports whether the stream had no header row.
func (t *Table) IsEmpty() bool {
	return t.header == nil
}

// Header returns the header, or an empty header for an empty table.
func (t *Table) Header() *Header {
	if t.header == nil {
		return NewHeader(nil)
	}
	return t.header
}

// Next returns the next data row. It returns io.EOF after the last row and
// a wrapped tokenizer error if the stream cannot be parsed further; both end
// iteration.
func (t *Table) Next() (Row, error) {
	if t.done {
		return Row{}, io.EOF
	}
	record, err := t.reader.Read()
	if err != nil {
		t.done = true
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("%s row %d: %w", t.filename, t.rows+1, err)
	}
	t.rows++
	return NewRow(t.rows, record), nil
}

// BytesRead returns how many raw bytes of the member have been consumed.
func (t *Table) BytesRead() int64 {
	return t.counter.BytesRead
}
