// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package datalog persists telemetry sessions to a CSV row sink and a JSON
// document sink that share one timestamped file name.
package datalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
)

// ErrAlreadyActive is returned by Start while a session is open.
var ErrAlreadyActive = errors.New("datalog: session already active")

const (
	// DefaultFlushEvery is how many accepted samples pass between forced
	// flushes of the row sink.
	DefaultFlushEvery = 100

	fileStampLayout = "20060102_150405"

	// maxNameAttempts bounds the numeric suffixes tried for one stamp.
	maxNameAttempts = 1000
)

// State is the logger lifecycle state.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Paths names the two sinks of one session.
type Paths struct {
	CSV  string `json:"csv"`
	JSON string `json:"json"`
}

// Logger records telemetry sessions. Start and Stop are the only state
// transitions. It is not safe for concurrent use.
type Logger struct {
	dir        string
	clock      timeutil.Clock
	flushEvery int

	state   State
	paths   Paths
	file    *os.File
	rows    *csv.Writer
	records []Record
	flushes int
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the clock used for timestamps and file names.
func WithClock(c timeutil.Clock) Option {
	return func(l *Logger) { l.clock = c }
}

// WithFlushEvery overrides DefaultFlushEvery.
func WithFlushEvery(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.flushEvery = n
		}
	}
}

// New returns an inactive logger writing into dir.
func New(dir string, opts ...Option) *Logger {
	l := &Logger{
		dir:        dir,
		clock:      timeutil.RealClock{},
		flushEvery: DefaultFlushEvery,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current lifecycle state.
func (l *Logger) State() State {
	return l.state
}

// Active reports whether a session is open.
func (l *Logger) Active() bool {
	return l.state == Active
}

// Paths returns the sinks of the current or most recent session.
func (l *Logger) Paths() Paths {
	return l.paths
}

// PeriodicFlushes returns how many interval flushes the current or most
// recent session forced.
func (l *Logger) PeriodicFlushes() int {
	return l.flushes
}

// Start opens a new session: both sink names are derived from the same
// wall-clock instant, the CSV header is written and the document buffer
// is reset.
func (l *Logger) Start() (Paths, error) {
	if l.state == Active {
		return l.paths, ErrAlreadyActive
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create log dir: %w", err)
	}

	paths, f, err := l.create(l.clock.Now().Format(fileStampLayout))
	if err != nil {
		return Paths{}, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return Paths{}, fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return Paths{}, fmt.Errorf("write header: %w", err)
	}

	l.paths = paths
	l.file = f
	l.rows = w
	l.records = []Record{}
	l.flushes = 0
	l.state = Active

	log.Printf("datalog: session started (csv=%s json=%s)", paths.CSV, paths.JSON)
	return paths, nil
}

// create reserves both sink names for stamp without touching files of an
// earlier session. A name already taken gets a shared _1, _2, ... suffix.
// The document sink is left empty until Stop.
func (l *Logger) create(stamp string) (Paths, *os.File, error) {
	for n := 0; n < maxNameAttempts; n++ {
		base := "telemetry_" + stamp
		if n > 0 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		paths := Paths{
			CSV:  filepath.Join(l.dir, base+".csv"),
			JSON: filepath.Join(l.dir, base+".json"),
		}

		f, err := os.OpenFile(paths.CSV, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return Paths{}, nil, fmt.Errorf("open row sink: %w", err)
		}
		doc, err := os.OpenFile(paths.JSON, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(paths.CSV)
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return Paths{}, nil, fmt.Errorf("open document sink: %w", err)
		}
		if err := doc.Close(); err != nil {
			_ = f.Close()
			return Paths{}, nil, fmt.Errorf("open document sink: %w", err)
		}
		return paths, f, nil
	}
	return Paths{}, nil, fmt.Errorf("no free session name for %s in %s", stamp, l.dir)
}

// Log appends s to both sinks. It is a no-op without an active session.
// A row write error is returned but the session stays open and the
// sample is still kept for the document sink.
func (l *Logger) Log(s telemetry.Sample) error {
	if l.state != Active {
		return nil
	}

	rec := Record{
		Timestamp: l.clock.Now().Format(TimestampLayout),
		Sample:    s,
	}
	l.records = append(l.records, rec)

	var errs []error
	if err := l.rows.Write(rec.Row()); err != nil {
		errs = append(errs, fmt.Errorf("write row: %w", err))
	}
	if len(l.records)%l.flushEvery == 0 {
		l.rows.Flush()
		l.flushes++
		if err := l.rows.Error(); err != nil {
			errs = append(errs, fmt.Errorf("flush rows: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Stop closes the row sink and writes the document sink. It is a no-op
// without an active session. The session ends even if writing fails.
func (l *Logger) Stop() error {
	if l.state != Active {
		return nil
	}
	l.state = Inactive

	l.rows.Flush()
	rowErr := l.rows.Error()
	if err := l.file.Close(); err != nil && rowErr == nil {
		rowErr = err
	}
	l.file = nil
	l.rows = nil
	if rowErr != nil {
		rowErr = fmt.Errorf("close row sink: %w", rowErr)
	}

	size, docErr := writeDocument(l.paths.JSON, newDocument(l.records))
	if docErr != nil {
		docErr = fmt.Errorf("write document sink: %w", docErr)
	}

	if err := errors.Join(rowErr, docErr); err != nil {
		log.Printf("datalog: session stopped with errors: %v", err)
		return err
	}
	log.Printf("datalog: session stopped, saved %d samples (%s)", len(l.records), humanize.Bytes(uint64(size)))
	return nil
}

// Stats summarizes the samples of the current or most recent session.
// It returns false when there are none.
func (l *Logger) Stats() (Stats, bool) {
	return Summarize(l.records)
}

func writeDocument(path string, doc Document) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = f.Close()
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}
	return info.Size(), f.Close()
}
