// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport delivers raw telemetry lines from the vehicle link
// (serial port, MQTT broker or a built-in simulator) to the station loop
// without ever blocking it.
package transport

import (
	"errors"
	"strings"
	"sync"
)

// ErrClosed is reported by a source after Close.
var ErrClosed = errors.New("transport closed")

// DefaultQueueSize bounds the lines held between polls.
const DefaultQueueSize = 1024

// LineSource is a non-blocking line-oriented link to the vehicle.
type LineSource interface {
	// TryReadLine returns the next complete line, or false when none is
	// waiting.
	TryReadLine() (string, bool)
	// WriteLine sends one line to the vehicle.
	WriteLine(line string) error
	// Err reports the failure that ended the link, if any. Lines received
	// before the failure are still returned by TryReadLine.
	Err() error
	Close() error
}

// lineQueue hands lines from a reader goroutine to the polling loop.
// When full, the oldest line is discarded.
type lineQueue struct {
	lines chan string

	mu      sync.Mutex
	err     error
	dropped uint64
}

func newLineQueue(size int) *lineQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &lineQueue{lines: make(chan string, size)}
}

func (q *lineQueue) push(line string) {
	for {
		select {
		case q.lines <- line:
			return
		default:
		}
		select {
		case <-q.lines:
			q.mu.Lock()
			q.dropped++
			q.mu.Unlock()
		default:
		}
	}
}

// pushText splits a chunk into lines and queues the non-empty ones.
func (q *lineQueue) pushText(text string) {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			q.push(line)
		}
	}
}

func (q *lineQueue) TryReadLine() (string, bool) {
	select {
	case line := <-q.lines:
		return line, true
	default:
		return "", false
	}
}

// fail records the first error only.
func (q *lineQueue) fail(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err == nil {
		q.err = err
	}
}

func (q *lineQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *lineQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func terminate(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}
