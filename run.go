package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NeoPangea/dbatools/event"
	"github.com/NeoPangea/dbatools/parsers/maintlog"
	"github.com/NeoPangea/dbatools/sink"
	"github.com/NeoPangea/dbatools/source"
	"github.com/NeoPangea/dbatools/target"
)

// run walks every requested target, feeds each target's log files through its
// own parser, and hands the reconstructed records to the sinks. No target is
// fatal to the batch: unreachable servers, missing log directories and empty
// directories are warned about and skipped.
func run(options GlobalOptions) {
	logrus.Info("Starting maintenance log read")

	stats := newRunStats()

	sigs := make(chan os.Signal, 1)
	ctx, cancel := context.WithCancel(context.Background())
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// set up our signal handler and support canceling
	go func() {
		sig := <-sigs
		fmt.Fprintf(os.Stderr, "Aborting! Caught signal \"%s\"\n", sig)
		fmt.Fprintf(os.Stderr, "Cleaning up...\n")
		cancel()
		// and if they insist, catch a second CTRL-C or timeout on 10sec
		select {
		case <-sigs:
			fmt.Fprintf(os.Stderr, "Caught second signal... Aborting.\n")
			os.Exit(1)
		case <-time.After(10 * time.Second):
			fmt.Fprintf(os.Stderr, "Taking too long... Aborting.\n")
			os.Exit(1)
		}
	}()

	sinks, err := buildSinks(options)
	if err != nil {
		logrus.WithError(err).Fatal("could not open output sink")
	}

	toBeSent := make(chan event.Record, 64)

	// apply any filters to the records before they reach the sinks
	modified := modifyRecordContents(toBeSent, options)

	doneSending := make(chan struct{})
	go func() {
		defer close(doneSending)
		for rec := range modified {
			for _, s := range sinks {
				if err := s.Write(rec); err != nil {
					logrus.WithError(err).Warn("failed to write record to sink")
				}
			}
			stats.update(rec)
		}
	}()

	if len(options.Reqs.LogFiles) != 0 {
		processFiles(ctx, options, expandGlobs(options.Reqs.LogFiles), toBeSent, stats)
	} else {
		targets, err := target.LoadTargets(options.Reqs.TargetsFile)
		if err != nil {
			logrus.WithError(err).Fatal("could not load targets file")
		}
		for _, tgt := range targets {
			if ctx.Err() != nil {
				break
			}
			processTarget(ctx, tgt, options, toBeSent, stats)
		}
	}

	close(toBeSent)
	<-doneSending
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close sink")
		}
	}
	stats.logFinal()

	logrus.Info("Maintenance log read is all done, goodbye!")
}

// processTarget resolves one target's identity and log files and runs them
// through a parser dedicated to that target. The parser is shared by all of
// the target's files, in order, so context carries across file boundaries.
func processTarget(ctx context.Context, tgt target.Target, options GlobalOptions, send chan<- event.Record, stats *runStats) {
	connectCtx, done := context.WithTimeout(ctx, time.Duration(options.ConnectTimeout)*time.Second)
	id, err := target.Connect(connectCtx, tgt)
	done()
	if err != nil {
		logrus.WithError(err).WithField("target", tgt.Label()).Warn("skipping unreachable target")
		stats.targetSkipped()
		return
	}

	if id.LogDirectory == "" {
		logrus.WithField("target", tgt.Label()).Warn("skipping target: no log directory resolved")
		stats.targetSkipped()
		return
	}

	pattern := tgt.Pattern
	if pattern == "" {
		pattern = options.Source.Pattern
	}
	files, err := source.ListLogFiles(id.LogDirectory, pattern)
	if err != nil {
		logrus.WithError(err).WithField("target", tgt.Label()).Warn("skipping target: cannot list log files")
		stats.targetSkipped()
		return
	}
	if len(files) == 0 {
		logrus.WithFields(logrus.Fields{
			"target": tgt.Label(),
			"dir":    id.LogDirectory,
		}).Warn("skipping target: no maintenance log files found")
		stats.targetSkipped()
		return
	}

	parser := newParser(maintlog.Options{
		ComputerName:    id.ComputerName,
		InstanceName:    id.InstanceName,
		SqlInstanceName: id.SqlInstanceName,
	})
	feedFiles(ctx, parser, files, send, stats)
	stats.targetDone()
}

// processFiles parses log files named directly on the command line. They are
// treated as one target whose identity fields come from the identity flags.
func processFiles(ctx context.Context, options GlobalOptions, files []string, send chan<- event.Record, stats *runStats) {
	if len(files) == 0 {
		logrus.Warn("no log files matched the provided paths")
		stats.targetSkipped()
		return
	}
	parser := newParser(options.Identity)
	feedFiles(ctx, parser, files, send, stats)
	stats.targetDone()
}

func newParser(opts maintlog.Options) *maintlog.Parser {
	p := &maintlog.Parser{}
	if err := p.Init(&opts); err != nil {
		logrus.WithError(err).Fatal("err initializing parser module")
	}
	return p
}

// feedFiles streams each file's lines through the shared parser. An
// unreadable file costs only that file; a read error mid-file costs only its
// remainder.
func feedFiles(ctx context.Context, parser *maintlog.Parser, files []string, send chan<- event.Record, stats *runStats) {
	for _, file := range files {
		if ctx.Err() != nil {
			return
		}
		lines, err := source.ReadLines(ctx, file)
		if err != nil {
			logrus.WithError(err).WithField("file", file).Warn("skipping unreadable log file")
			continue
		}
		parser.ProcessLines(lines, send)
		stats.fileDone(file)
	}
}

// expandGlobs expands any globs in the list of files so our list all
// represents real files
func expandGlobs(paths []string) []string {
	var files []string
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			logrus.WithError(err).WithField("file", p).Warn("bad log file pattern, skipping")
			continue
		}
		if len(matches) == 0 {
			logrus.WithField("file", p).Warn("log file not found, skipping")
			continue
		}
		files = append(files, matches...)
	}
	return files
}

// modifyRecordContents takes a channel from which it will read records. It
// returns a channel on which it will send the munged records. It is
// responsible for hashing or dropping or adding fields to the records.
func modifyRecordContents(toBeSent chan event.Record, options GlobalOptions) chan event.Record {
	// parse the addField bit once instead of for every record
	parsedAddFields := map[string]string{}
	for _, addField := range options.AddFields {
		splitField := strings.SplitN(addField, "=", 2)
		if len(splitField) != 2 {
			logrus.WithFields(logrus.Fields{
				"add_field": addField,
			}).Fatal("unable to separate provided field into a key=val pair")
		}
		parsedAddFields[splitField[0]] = splitField[1]
	}
	if len(options.DropFields) == 0 && len(options.ScrubFields) == 0 && len(parsedAddFields) == 0 {
		return toBeSent
	}
	newSent := make(chan event.Record, cap(toBeSent))
	go func() {
		defer close(newSent)
		for rec := range toBeSent {
			// do dropping
			for _, field := range options.DropFields {
				delete(rec, field)
			}
			// do scrubbing
			for _, field := range options.ScrubFields {
				if val, ok := rec[field]; ok {
					// generate a sha256 hash and use the base16 for the content
					rec[field] = fmt.Sprintf("%x", sha256.Sum256([]byte(val)))
				}
			}
			// do adding
			for k, v := range parsedAddFields {
				rec[k] = v
			}
			newSent <- rec
		}
	}()
	return newSent
}

func buildSinks(options GlobalOptions) ([]sink.Sink, error) {
	var sinks []sink.Sink
	switch options.Output.Format {
	case "csv":
		sinks = append(sinks, sink.NewCSVSink(os.Stdout))
	default:
		sinks = append(sinks, sink.NewJSONSink(os.Stdout))
	}
	if options.Output.DBPath != "" {
		store, err := sink.OpenStore(options.Output.DBPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, store)
	}
	return sinks, nil
}
