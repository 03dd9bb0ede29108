// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialSource reads newline-terminated telemetry from a serial port on a
// background goroutine.
type SerialSource struct {
	name string
	port io.ReadWriteCloser
	q    *lineQueue

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens the configured port and starts reading from it.
func OpenSerial(opts PortOptions) (*SerialSource, error) {
	o, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(o.openOptions())
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", o.Port, err)
	}
	log.Printf("transport: serial port opened on %s at %d baud", o.Port, o.BaudRate)
	return NewSerialSource(o.Port, port, o.SettleDelay), nil
}

// NewSerialSource wraps an already open port. Reading starts after settle.
func NewSerialSource(name string, port io.ReadWriteCloser, settle time.Duration) *SerialSource {
	s := &SerialSource{
		name: name,
		port: port,
		q:    newLineQueue(DefaultQueueSize),
		done: make(chan struct{}),
	}
	go s.readLoop(settle)
	return s
}

func (s *SerialSource) readLoop(settle time.Duration) {
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-s.done:
			return
		}
	}

	reader := bufio.NewReader(s.port)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			s.q.push(line)
		}
		if err != nil {
			select {
			case <-s.done:
				s.q.fail(ErrClosed)
			default:
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				s.q.fail(fmt.Errorf("read %s: %w", s.name, err))
			}
			return
		}
	}
}

func (s *SerialSource) TryReadLine() (string, bool) { return s.q.TryReadLine() }

func (s *SerialSource) Err() error { return s.q.Err() }

// Dropped counts lines discarded because the loop fell behind.
func (s *SerialSource) Dropped() uint64 { return s.q.Dropped() }

// WriteLine sends line, adding the newline terminator if missing.
func (s *SerialSource) WriteLine(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if _, err := io.WriteString(s.port, terminate(line)); err != nil {
		return fmt.Errorf("write %s: %w", s.name, err)
	}
	return nil
}

// Close stops the reader and closes the port. It is safe to call twice.
func (s *SerialSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.q.fail(ErrClosed)
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}

var _ LineSource = (*SerialSource)(nil)
