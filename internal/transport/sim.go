// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/relabs-tech/rocket_groundstation/internal/orientation"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
)

const (
	DefaultSimPeriod = 50 * time.Millisecond
	// simBacklog caps how many samples a late poll catches up on.
	simBacklog = 20
)

// simRecord is one line of the simulated vehicle's output.
type simRecord struct {
	Roll        float64 `json:"roll"`
	Pitch       float64 `json:"pitch"`
	Yaw         float64 `json:"yaw"`
	Altitude    float64 `json:"altitude"`
	Velocity    float64 `json:"velocity"`
	BNOStatus   string  `json:"bno_status"`
	ADXL1Status string  `json:"adxl1_status"`
	ADXL2Status string  `json:"adxl2_status"`
	BMPStatus   string  `json:"bmp_status"`
	BNOAx       float64 `json:"bno_ax"`
	BNOAy       float64 `json:"bno_ay"`
	BNOAz       float64 `json:"bno_az"`
}

// SimSource produces the lines a vehicle on a repeating test flight would
// send, one per period of the supplied clock. It generates lines lazily in
// TryReadLine and is not safe for concurrent use.
type SimSource struct {
	clock  timeutil.Clock
	start  time.Time
	period time.Duration
	next   time.Time

	pending []string
	closed  bool
}

// NewSimSource starts a simulated flight now. A nil clock means wall-clock
// time; a non-positive period means DefaultSimPeriod.
func NewSimSource(clock timeutil.Clock, period time.Duration) *SimSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if period <= 0 {
		period = DefaultSimPeriod
	}
	now := clock.Now()
	return &SimSource{
		clock:   clock,
		start:   now,
		period:  period,
		next:    now,
		pending: []string{`{"status":"SIMULATOR READY"}`},
	}
}

func (s *SimSource) TryReadLine() (string, bool) {
	if s.closed {
		return "", false
	}
	if len(s.pending) == 0 {
		s.generate()
	}
	if len(s.pending) == 0 {
		return "", false
	}
	line := s.pending[0]
	s.pending = s.pending[1:]
	return line, true
}

func (s *SimSource) generate() {
	now := s.clock.Now()
	if now.Before(s.next) {
		return
	}
	if behind := now.Sub(s.next); behind > simBacklog*s.period {
		s.next = now.Add(-(simBacklog - 1) * s.period)
	}
	for !s.next.After(now) {
		s.pending = append(s.pending, s.line(s.next))
		s.next = s.next.Add(s.period)
	}
}

func (s *SimSource) line(at time.Time) string {
	t := at.Sub(s.start).Seconds()
	pose := orientation.PoseAt(t)
	alt, vel := orientation.FlightProfile(t)
	ax, ay, az := orientation.GravityAccel(pose, orientation.StandardGravity)
	rec := simRecord{
		Roll: pose.Roll, Pitch: pose.Pitch, Yaw: pose.Yaw,
		Altitude: alt, Velocity: vel,
		BNOStatus: "OK", ADXL1Status: "OK", ADXL2Status: "OK", BMPStatus: "OK",
		BNOAx: ax, BNOAy: ay, BNOAz: az,
	}
	b, _ := json.Marshal(rec)
	return string(b)
}

// WriteLine acknowledges a command with a status line.
func (s *SimSource) WriteLine(line string) error {
	if s.closed {
		return ErrClosed
	}
	ack, err := json.Marshal(map[string]string{"status": fmt.Sprintf("ACK %s", strings.TrimSpace(line))})
	if err != nil {
		return err
	}
	s.pending = append(s.pending, string(ack))
	return nil
}

func (s *SimSource) Err() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *SimSource) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}

var _ LineSource = (*SimSource)(nil)
