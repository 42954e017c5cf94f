// Package sink writes reconstructed maintenance records to their
// destinations: a JSON-lines or CSV stream, and optionally a SQLite table.
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/NeoPangea/dbatools/event"
)

type Options struct {
	Format string `long:"format" description:"Stream format written to stdout" choice:"jsonl" choice:"csv" default:"jsonl"`
	DBPath string `long:"sqlite" description:"Also append records to the SQLite database at this path"`
}

// Sink receives records as the parser emits them.
type Sink interface {
	Write(rec event.Record) error
	Close() error
}

// JSONSink streams one JSON object per record as it arrives.
type JSONSink struct {
	enc *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) Write(rec event.Record) error {
	return s.enc.Encode(rec)
}

func (s *JSONSink) Close() error {
	return nil
}

// CSVSink renders records as a sparse table whose header is the union of
// observed field names. The union isn't known until the last record, so rows
// are buffered and written on Close.
type CSVSink struct {
	w       io.Writer
	records []event.Record
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

func (s *CSVSink) Write(rec event.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *CSVSink) Close() error {
	if len(s.records) == 0 {
		return nil
	}
	cols := event.Columns(s.records)
	cw := csv.NewWriter(s.w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	row := make([]string, len(cols))
	for _, rec := range s.records {
		for i, col := range cols {
			row[i] = rec[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
