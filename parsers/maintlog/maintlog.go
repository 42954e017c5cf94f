// Package maintlog parses the text log files written by the SQL Server index
// maintenance job and reconstructs one record per index action.
//
// A log file holds one block of lines per database, each followed by one
// block per index command run against it:
//
// Database: [AdventureWorks]
// Status: ONLINE
// Standby: False
// Updateability: READ_WRITE
// Useraccess: MULTI_USER
// Isaccessible: True
// RecoveryModel: FULL
//
// Command: ALTER INDEX [PK_Orders] ON [AdventureWorks].[dbo].[Orders] REBUILD WITH (ONLINE = ON)
// Comment: ObjectType: Index, IndexType: Clustered, PageCount: 1250
// Outcome: Succeeded
// Duration: 00:00:12
// Date and Time: 2017-05-01 02:00:15
//
// Fields inherit downward: every index record carries the fields of the
// database block it appeared under plus the per-target identity fields, each
// copied at fork time so later lines can't rewrite already-forked contexts.
// A record is complete on the line immediately after its Duration line; that
// line carries the completion timestamp. A Duration line with no following
// line (truncated file) emits nothing.
package maintlog

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/NeoPangea/dbatools/event"
	"github.com/NeoPangea/dbatools/parsers"
)

var (
	reDatabase = parsers.ExtRegexp{Regexp: regexp.MustCompile(`^Database: \[(?P<database>[^\]]+)\]`)}
	reCommand  = parsers.ExtRegexp{Regexp: regexp.MustCompile(`^Command: ALTER INDEX \[(?P<index>[^\]]+)\] ON \[(?P<database>[^\]]+)\]\.\[(?P<schema>[^\]]+)\]\.\[(?P<table>[^\]]+)\] (?P<action>\S+) WITH \((?P<options>.*)\)`)}
)

// statusKeys are the per-database attribute lines the job writes under a
// Database header. Matching is case-sensitive and anchored at line start.
var statusKeys = []string{
	"Status",
	"Standby",
	"Updateability",
	"Useraccess",
	"Isaccessible",
	"RecoveryModel",
}

const (
	commentPrefix = "Comment: "
	endTimePrefix = "Date and Time: "
)

// Options carries the per-target identity fields copied onto every record.
// They are resolved from the target instance when one is available, or
// supplied on the command line when parsing files directly.
type Options struct {
	ComputerName    string `long:"computer" description:"Value for the ComputerName field on every record"`
	InstanceName    string `long:"instance" description:"Value for the InstanceName field on every record"`
	SqlInstanceName string `long:"sqlinstance" description:"Value for the SqlInstanceName field on every record"`
}

// Parser is the maintenance-log state machine. One Parser serves one target;
// its context persists across ProcessLines calls so a database or index block
// that spans a file boundary is still attributed correctly. It is not safe
// for concurrent use; parallel targets each need their own Parser.
type Parser struct {
	conf Options
	cur  cursor
}

func (p *Parser) Init(options interface{}) error {
	if options != nil {
		p.conf = *options.(*Options)
	}
	id := event.Record{
		event.FieldComputerName:    p.conf.ComputerName,
		event.FieldInstanceName:    p.conf.InstanceName,
		event.FieldSqlInstanceName: p.conf.SqlInstanceName,
	}
	p.cur = cursor{identity: id}
	return nil
}

func (p *Parser) ProcessLines(lines <-chan string, send chan<- event.Record) {
	for line := range lines {
		if rec, ok := p.cur.step(line); ok {
			logrus.WithFields(logrus.Fields{
				"database": rec.Database(),
				"index":    rec.Index(),
				"outcome":  rec.Outcome(),
			}).Debug("emitting index action record")
			send <- rec
		}
	}
}

// emitPhase is the two-state sub-automaton that ties a Duration line to the
// timestamp line that follows it.
type emitPhase int

const (
	// awaitingDuration: no Duration line is pending completion.
	awaitingDuration emitPhase = iota
	// awaitingTimestamp: the previous line was a Duration line; the current
	// line, whatever it holds, completes and emits the index record.
	awaitingTimestamp
)

// cursor is the parser's nested context state: the read-only per-target
// identity, the active database block, the active index command block, and
// the emit phase. db and index are forked by cloning, never shared, so a
// later mutation of one context can't reach back into another.
type cursor struct {
	identity event.Record
	db       event.Record
	index    event.Record
	phase    emitPhase
}

// step classifies one line and returns the record it completes, if any. The
// rules below are deliberately evaluated independently, in this fixed order;
// in particular the completion check runs before the Duration check so that
// Duration and its completion timestamp must be two distinct consecutive
// lines. Lines matching no rule are inert, as are attribute lines arriving
// before the context they belong to exists.
func (c *cursor) step(line string) (event.Record, bool) {
	// a Database header forks a fresh database context off the identity
	if _, m := reDatabase.FindStringSubmatchMap(line); m != nil {
		c.db = c.identity.Clone()
		c.db[event.FieldDatabase] = m["database"]
	}

	// database attribute lines mutate the active database context; the value
	// sits after the last colon so embedded colons in the key text are fine
	if c.db != nil {
		for _, key := range statusKeys {
			if strings.HasPrefix(line, key) && strings.Contains(line, ":") {
				c.db[key] = lastColonValue(line)
			}
		}
	}

	// a Command line forks a fresh index context off the active database.
	// With no database context yet there is nothing to inherit from; the
	// block is dropped rather than invented.
	if _, m := reCommand.FindStringSubmatchMap(line); m != nil {
		if c.db != nil {
			c.index = c.db.Clone()
			c.index[event.FieldIndex] = m["index"]
			c.index[event.FieldSchema] = m["schema"]
			c.index[event.FieldTable] = m["table"]
			c.index[event.FieldAction] = m["action"]
			c.index[event.FieldOptions] = m["options"]
		} else {
			c.index = nil
		}
	}

	// Comment lines carry free-form "k: v, k: v" pairs; extraction is
	// best-effort, a part without a value still lands as an empty field
	if c.index != nil && strings.HasPrefix(line, commentPrefix) {
		for _, part := range strings.Split(strings.TrimPrefix(line, commentPrefix), ",") {
			k, v, _ := strings.Cut(part, ":")
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			c.index[k] = strings.TrimSpace(v)
		}
	}

	if c.index != nil && strings.HasPrefix(line, "Outcome") && strings.Contains(line, ":") {
		c.index[event.FieldOutcome] = lastColonValue(line)
	}

	// completion check: the line after a Duration line finalizes the record,
	// whatever else it contains. Emit a clone so the record is immune to any
	// further context mutation.
	var emitted event.Record
	if c.phase == awaitingTimestamp {
		c.phase = awaitingDuration
		if c.index != nil {
			c.index[event.FieldEndTime] = strings.TrimPrefix(line, endTimePrefix)
			emitted = c.index.Clone()
		}
	}

	if strings.HasPrefix(line, "Duration") {
		// the line itself uses ": " as a field separator, so the HH:MM:SS
		// value is recovered as the last three colon-delimited tokens
		if parts := strings.Split(line, ":"); len(parts) >= 3 && c.index != nil {
			c.index[event.FieldDuration] = strings.TrimSpace(strings.Join(parts[len(parts)-3:], ":"))
		}
		c.phase = awaitingTimestamp
	}

	return emitted, emitted != nil
}

// lastColonValue returns the trimmed substring after the last colon.
func lastColonValue(line string) string {
	return strings.TrimSpace(line[strings.LastIndex(line, ":")+1:])
}
