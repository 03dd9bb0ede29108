// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bytes"
	"errors"
	"sync"
)

// MockPort is an in-memory serial port for tests. Reads block until data
// is added, a read error is injected or the port is closed.
type MockPort struct {
	mu   sync.Mutex
	cond *sync.Cond

	readBuffer  bytes.Buffer
	writeBuffer bytes.Buffer

	readErr    error
	writeErr   error
	closed     bool
	closeCalls int
}

// NewMockPort creates an empty port.
func NewMockPort() *MockPort {
	p := &MockPort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *MockPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.closed && p.readErr == nil && p.readBuffer.Len() == 0 {
		p.cond.Wait()
	}
	if p.readBuffer.Len() > 0 {
		return p.readBuffer.Read(b)
	}
	if p.closed {
		return 0, errors.New("mock port closed")
	}
	return 0, p.readErr
}

func (p *MockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("mock port closed")
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.writeBuffer.Write(b)
}

func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closeCalls++
	p.cond.Broadcast()
	return nil
}

// AddReadData makes data available to readers.
func (p *MockPort) AddReadData(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuffer.WriteString(data)
	p.cond.Broadcast()
}

// FailReads makes reads return err once buffered data is consumed.
func (p *MockPort) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
	p.cond.Broadcast()
}

// FailWrites makes every later write return err.
func (p *MockPort) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// Written returns everything written so far.
func (p *MockPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBuffer.String()
}

// CloseCalls reports how many times Close was called.
func (p *MockPort) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}
