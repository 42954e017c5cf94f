// Package parsers provides the interface log parsing engines implement.
//
// Each module under here takes care of one log dialect, turning blocks of
// text lines into flat records.
package parsers

import (
	"regexp"

	"github.com/NeoPangea/dbatools/event"
)

type Parser interface {
	// Init does any initialization necessary for the module
	Init(options interface{}) error
	// ProcessLines consumes log lines from the lines channel and sends
	// reconstructed records to the send channel. It returns once lines is
	// closed and drained; internal parsing context survives across calls so a
	// block split over a file boundary still parses.
	ProcessLines(lines <-chan string, send chan<- event.Record)
}

// ExtRegexp is a Regexp with one additional method to make it easier to work
// with named groups
type ExtRegexp struct {
	*regexp.Regexp
}

// FindStringSubmatchMap behaves the same as FindStringSubmatch except instead
// of a list of matches with the names separate, it returns the full match and a
// map of named submatches
func (r *ExtRegexp) FindStringSubmatchMap(s string) (string, map[string]string) {
	match := r.FindStringSubmatch(s)
	if match == nil {
		return "", nil
	}

	captures := make(map[string]string)
	for i, name := range r.SubexpNames() {
		if i == 0 {
			continue
		}
		if name != "" {
			// ignore unnamed matches
			captures[name] = match[i]
		}
	}
	return match[0], captures
}
