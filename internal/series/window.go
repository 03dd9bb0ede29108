// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package series keeps the most recent telemetry samples for live plots.
package series

import "github.com/relabs-tech/rocket_groundstation/internal/telemetry"

// DefaultCapacity is the number of samples kept for live plotting.
const DefaultCapacity = 500

// Window is a fixed-capacity ring buffer of samples. Once full, each Push
// evicts the oldest sample. It is not safe for concurrent use; the owner
// serializes access.
type Window struct {
	buf   []telemetry.Sample
	head  int // index of the oldest sample
	count int

	// next is the logical position the next Push receives. It survives Clear.
	next uint64
}

// Series is an index-aligned copy of the window, one slice per field.
type Series struct {
	Time     []float64 `json:"time"`
	Roll     []float64 `json:"roll"`
	Pitch    []float64 `json:"pitch"`
	Yaw      []float64 `json:"yaw"`
	Altitude []float64 `json:"altitude"`
	Velocity []float64 `json:"velocity"`
}

// Len returns the number of samples in the series.
func (s Series) Len() int {
	return len(s.Time)
}

// NewWindow returns an empty window holding at most capacity samples.
// A capacity below 1 selects DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]telemetry.Sample, capacity)}
}

// Cap returns the fixed capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return w.count
}

// Push appends s, evicting the oldest sample when the window is full, and
// returns the logical position assigned to s.
func (w *Window) Push(s telemetry.Sample) uint64 {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = s
		w.count++
	} else {
		w.buf[w.head] = s
		w.head = (w.head + 1) % len(w.buf)
	}
	pos := w.next
	w.next++
	return pos
}

// Clear drops every sample.
func (w *Window) Clear() {
	clear(w.buf)
	w.head = 0
	w.count = 0
}

// FirstPosition returns the logical position of the oldest held sample.
// For an empty window it equals NextPosition.
func (w *Window) FirstPosition() uint64 {
	return w.next - uint64(w.count)
}

// NextPosition returns the position the next pushed sample will receive.
func (w *Window) NextPosition() uint64 {
	return w.next
}

// Latest returns the most recently pushed sample.
func (w *Window) Latest() (telemetry.Sample, bool) {
	if w.count == 0 {
		return telemetry.Sample{}, false
	}
	return w.buf[(w.head+w.count-1)%len(w.buf)], true
}

// Samples returns the held samples, oldest first.
func (w *Window) Samples() []telemetry.Sample {
	out := make([]telemetry.Sample, 0, w.count)
	w.each(func(s telemetry.Sample) {
		out = append(out, s)
	})
	return out
}

// Series returns the held samples as parallel per-field slices.
func (w *Window) Series() Series {
	s := Series{
		Time:     make([]float64, 0, w.count),
		Roll:     make([]float64, 0, w.count),
		Pitch:    make([]float64, 0, w.count),
		Yaw:      make([]float64, 0, w.count),
		Altitude: make([]float64, 0, w.count),
		Velocity: make([]float64, 0, w.count),
	}
	w.each(func(x telemetry.Sample) {
		s.Time = append(s.Time, x.Time)
		s.Roll = append(s.Roll, x.Roll)
		s.Pitch = append(s.Pitch, x.Pitch)
		s.Yaw = append(s.Yaw, x.Yaw)
		s.Altitude = append(s.Altitude, x.Altitude)
		s.Velocity = append(s.Velocity, x.Velocity.Or(0))
	})
	return s
}

func (w *Window) each(fn func(telemetry.Sample)) {
	for i := 0; i < w.count; i++ {
		fn(w.buf[(w.head+i)%len(w.buf)])
	}
}
