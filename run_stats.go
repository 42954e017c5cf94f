package main

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NeoPangea/dbatools/event"
)

// runStats is a container for collecting statistics about a run. It counts
// targets, files and records as they are processed and presents a summary
// when the run finishes.
type runStats struct {
	lock *sync.Mutex

	start          time.Time
	records        int
	files          int
	targetsDone    int
	targetsSkipped int
	outcomes       map[string]int
	last           event.Record
}

// newRunStats initializes the struct's complex data types
func newRunStats() *runStats {
	return &runStats{
		lock:     &sync.Mutex{},
		start:    time.Now(),
		outcomes: make(map[string]int),
	}
}

// update adds one emitted record into the stats container
func (r *runStats) update(rec event.Record) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.records++
	r.outcomes[rec.Outcome()]++
	r.last = rec
}

func (r *runStats) fileDone(path string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.files++
	logrus.WithField("file", path).Debug("finished log file")
}

func (r *runStats) targetDone() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.targetsDone++
}

func (r *runStats) targetSkipped() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.targetsSkipped++
}

// logFinal prints the run summary to logrus.
func (r *runStats) logFinal() {
	r.lock.Lock()
	defer r.lock.Unlock()
	logrus.WithFields(logrus.Fields{
		"records":             r.records,
		"files":               r.files,
		"targets":             r.targetsDone,
		"targets_skipped":     r.targetsSkipped,
		"records_per_outcome": r.outcomes,
		"elapsed":             time.Since(r.start).Round(time.Millisecond),
	}).Info("Summary of reconstructed records")
	if r.last != nil {
		logrus.WithField("record", r.last).Info("Last parsed record")
	}
}
