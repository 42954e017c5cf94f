// Package source enumerates and reads a target's maintenance log files.
//
// Each file is exposed as a channel delivering one log line per message,
// stripped of line terminators. The file handle is held only while the
// channel is being produced and is released on full consumption or when the
// caller cancels the context.
package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// DefaultPattern matches the text logs the index maintenance job writes, one
// file per job run.
const DefaultPattern = "IndexOptimize_*.txt"

type Options struct {
	Pattern string `long:"pattern" description:"Glob pattern selecting maintenance log files inside the log directory" default:"IndexOptimize_*.txt"`
}

// ListLogFiles returns the log files under dir matching pattern, sorted by
// name. The job stamps filenames with the run's start time, so name order is
// chronological order.
func ListLogFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad log file pattern %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// ReadLines opens path and returns a channel delivering its lines in order.
// The channel is closed and the file released when the file is exhausted or
// ctx is canceled, whichever comes first. A read error mid-file ends the
// channel early; lines already delivered stand.
func ReadLines(ctx context.Context, path string) (<-chan string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	lines := make(chan string)
	go func() {
		defer close(lines)
		defer fh.Close()
		scanner := bufio.NewScanner(fh)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				logrus.WithField("file", path).Debug("canceled mid-file, releasing handle")
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logrus.WithFields(logrus.Fields{
				"file": path,
				"err":  err,
			}).Warn("error reading log file; keeping records parsed so far")
		}
	}()
	return lines, nil
}
