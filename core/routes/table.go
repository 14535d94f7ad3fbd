package routes

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Route master CSV column headers.
const (
	colSource  = "SMH"
	colDockIn  = "dock in time"
	colPromise = "Promise"
)

// Record is one row of the route master: the scheduled dock-in time and the
// promise deadline for a source, both as fractional minutes since midnight.
type Record struct {
	Source  string
	DockIn  float64
	Promise float64
}

// Table is the in-memory route reference table. It is immutable after load;
// the allocation engine only queries it.
type Table struct {
	records map[string]Record
}

// New builds a table from pre-parsed records. Later records win on duplicate
// source codes.
func New(records []Record) *Table {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.Source] = r
	}
	return &Table{records: m}
}

// Lookup returns the route record for the source, if any.
func (t *Table) Lookup(source string) (Record, bool) {
	r, ok := t.records[source]
	return r, ok
}

// Len reports the number of known sources.
func (t *Table) Len() int { return len(t.records) }

// Load reads the route master CSV from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route master: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads route master rows from r. The first row must be a header
// containing the SMH, dock in time and Promise columns.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("route master header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range []string{colSource, colDockIn, colPromise} {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("route master: missing column %q", name)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("route master line %d: %w", line, err)
		}
		dockIn, err := ParseClock(row[idx[colDockIn]])
		if err != nil {
			return nil, fmt.Errorf("route master line %d: %w", line, err)
		}
		promise, err := ParseClock(row[idx[colPromise]])
		if err != nil {
			return nil, fmt.Errorf("route master line %d: %w", line, err)
		}
		records = append(records, Record{
			Source:  row[idx[colSource]],
			DockIn:  dockIn,
			Promise: promise,
		})
	}
	return New(records), nil
}
