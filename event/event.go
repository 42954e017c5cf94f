// Package event contains the record type passed between the log parser and
// the output sinks.
package event

import "sort"

// Field names for the fixed record fields. The lowercase spellings of action,
// options and outcome (and the Endtime capitalization) are historical; the
// job's downstream consumers expect them exactly as written here.
const (
	FieldComputerName    = "ComputerName"
	FieldInstanceName    = "InstanceName"
	FieldSqlInstanceName = "SqlInstanceName"
	FieldDatabase        = "Database"
	FieldIndex           = "Index"
	FieldSchema          = "Schema"
	FieldTable           = "Table"
	FieldAction          = "action"
	FieldOptions         = "options"
	FieldOutcome         = "outcome"
	FieldDuration        = "Duration"
	FieldEndTime         = "Endtime"
)

// Record is a single reconstructed index-maintenance action. It is a flat
// field-name -> value mapping rather than a fixed struct because Comment
// lines carry free-form key/value pairs, so the field set is open.
type Record map[string]string

// New returns an empty Record.
func New() Record {
	return make(Record)
}

// Clone returns an independent copy of the record. Contexts in the parser are
// forked by cloning, and records are cloned again at emission, so mutating a
// parent context never changes a child and mutating an emitted record never
// changes the parser's state.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Typed accessors for the fixed fields. The map stays the source of truth;
// these exist so callers don't have to repeat the historical key spellings.

func (r Record) ComputerName() string { return r[FieldComputerName] }

func (r Record) InstanceName() string { return r[FieldInstanceName] }

func (r Record) SqlInstanceName() string { return r[FieldSqlInstanceName] }

func (r Record) Database() string { return r[FieldDatabase] }

func (r Record) Index() string { return r[FieldIndex] }

func (r Record) Schema() string { return r[FieldSchema] }

func (r Record) Table() string { return r[FieldTable] }

func (r Record) Action() string { return r[FieldAction] }

func (r Record) Options() string { return r[FieldOptions] }

func (r Record) Outcome() string { return r[FieldOutcome] }

func (r Record) Duration() string { return r[FieldDuration] }

func (r Record) EndTime() string { return r[FieldEndTime] }

// Columns returns the sorted union of field names across records. Most
// records omit most optional columns, so tabular sinks use this to build a
// sparse header.
func Columns(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
