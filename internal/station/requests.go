// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package station

import (
	"context"
	"time"

	"github.com/relabs-tech/rocket_groundstation/internal/attitude"
	"github.com/relabs-tech/rocket_groundstation/internal/datalog"
	"github.com/relabs-tech/rocket_groundstation/internal/orientation"
	"github.com/relabs-tech/rocket_groundstation/internal/series"
	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

// Snapshot is a copy of the station state for display.
type Snapshot struct {
	Status       string    `json:"status"`
	Connected    bool      `json:"connected"`
	Transport    string    `json:"transport"`
	Link         string    `json:"link,omitempty"`
	SessionStart time.Time `json:"session_start,omitzero"`

	Latest    telemetry.Optional[telemetry.Sample] `json:"latest,omitzero"`
	Sensors   map[string]string                    `json:"sensors"`
	AccelTilt telemetry.Optional[orientation.Pose] `json:"accel_tilt,omitzero"`

	VehicleStatus telemetry.Optional[telemetry.Status] `json:"vehicle_status,omitzero"`
	VehicleError  telemetry.Optional[telemetry.Error]  `json:"vehicle_error,omitzero"`

	Attitude attitude.State  `json:"attitude"`
	Camera   attitude.Camera `json:"camera"`
	Window   WindowInfo      `json:"window"`
	Logging  LogInfo         `json:"logging"`
	Counters Counters        `json:"counters"`
}

type WindowInfo struct {
	Len   int    `json:"len"`
	Cap   int    `json:"cap"`
	First uint64 `json:"first"`
	Next  uint64 `json:"next"`
}

type LogInfo struct {
	State   string        `json:"state"`
	Paths   datalog.Paths `json:"paths"`
	Samples int           `json:"samples"`
	Flushes int           `json:"flushes"`
}

// SensorStatuses maps each sensor to its reported status, UNKNOWN when the
// sample did not carry one.
func SensorStatuses(s telemetry.Sample) map[string]string {
	return map[string]string{
		"bno":   s.BNOStatus.Or(telemetry.UnknownStatus),
		"adxl1": s.ADXL1Status.Or(telemetry.UnknownStatus),
		"adxl2": s.ADXL2Status.Or(telemetry.UnknownStatus),
		"bmp":   s.BMPStatus.Or(telemetry.UnknownStatus),
	}
}

func (s *Station) snapshot() Snapshot {
	snap := Snapshot{
		Status:        s.status,
		Connected:     s.src != nil,
		Transport:     s.cfg.Transport,
		Latest:        s.latest,
		VehicleStatus: s.lastStatus,
		VehicleError:  s.lastError,
		Attitude:      s.view.State(),
		Camera:        s.view.Camera(),
		Window: WindowInfo{
			Len:   s.window.Len(),
			Cap:   s.window.Cap(),
			First: s.window.FirstPosition(),
			Next:  s.window.NextPosition(),
		},
		Logging: LogInfo{
			State:   s.logger.State().String(),
			Paths:   s.logger.Paths(),
			Flushes: s.logger.PeriodicFlushes(),
		},
		Counters: s.counters,
	}
	if s.src != nil {
		snap.Link = s.linkName()
	}
	if s.decoder != nil {
		snap.SessionStart = s.decoder.Start()
	}
	if st, ok := s.logger.Stats(); ok {
		snap.Logging.Samples = st.Samples
	}

	latest, ok := s.latest.Get()
	if !ok {
		latest = telemetry.Sample{}
	}
	snap.Sensors = SensorStatuses(latest)
	ax, okx := latest.BNOAx.Get()
	ay, oky := latest.BNOAy.Get()
	az, okz := latest.BNOAz.Get()
	if okx && oky && okz {
		snap.AccelTilt = telemetry.Some(orientation.FromAccel(ax, ay, az))
	}
	return snap
}

// Snapshot returns the current state.
func (s *Station) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Do(ctx, func() { snap = s.snapshot() })
	return snap, err
}

// Series returns a copy of the rolling window.
func (s *Station) Series(ctx context.Context) (series.Series, error) {
	var out series.Series
	err := s.Do(ctx, func() { out = s.window.Series() })
	return out, err
}

// Frame computes the current attitude frame.
func (s *Station) Frame(ctx context.Context) (attitude.Frame, error) {
	var f attitude.Frame
	err := s.Do(ctx, func() { f = s.view.Frame() })
	return f, err
}

// PushSample feeds a sample as if it had been decoded from the link.
func (s *Station) PushSample(ctx context.Context, sample telemetry.Sample) error {
	return s.Do(ctx, func() {
		s.pushSample(sample)
		for _, sink := range s.sinks {
			sink.Publish(sample)
		}
	})
}

// ClearWindow empties the rolling window.
func (s *Station) ClearWindow(ctx context.Context) error {
	return s.Do(ctx, func() { s.window.Clear() })
}

// SetAttitude overrides the displayed attitude until the next sample.
func (s *Station) SetAttitude(ctx context.Context, roll, pitch, yaw, altitude float64) error {
	return s.Do(ctx, func() {
		s.view.SetAttitude(roll, pitch, yaw, altitude)
		s.dirty = true
	})
}

// Drag orbits the camera by a pointer motion in pixels.
func (s *Station) Drag(ctx context.Context, dx, dy float64) error {
	return s.Do(ctx, func() {
		s.view.Drag(dx, dy)
		s.dirty = true
	})
}

// Scroll zooms the camera.
func (s *Station) Scroll(ctx context.Context, delta float64) error {
	return s.Do(ctx, func() {
		s.view.Scroll(delta)
		s.dirty = true
	})
}

// Connect opens the link, replacing any open one.
func (s *Station) Connect(ctx context.Context, port string) error {
	var err error
	if doErr := s.Do(ctx, func() { err = s.connect(port) }); doErr != nil {
		return doErr
	}
	return err
}

// Disconnect closes the link and stops reconnecting. An active log
// session is stopped.
func (s *Station) Disconnect(ctx context.Context) error {
	return s.Do(ctx, func() {
		s.wantConnected = false
		s.closeLink(statusDisconnected)
	})
}

// StartLog opens a log session.
func (s *Station) StartLog(ctx context.Context) (datalog.Paths, error) {
	var (
		paths datalog.Paths
		err   error
	)
	if doErr := s.Do(ctx, func() { paths, err = s.startLog() }); doErr != nil {
		return datalog.Paths{}, doErr
	}
	return paths, err
}

// StopLog closes the log session and writes its document. Stopping an
// inactive logger is a no-op.
func (s *Station) StopLog(ctx context.Context) (datalog.Paths, error) {
	var (
		paths datalog.Paths
		err   error
	)
	if doErr := s.Do(ctx, func() {
		paths = s.logger.Paths()
		err = s.stopLog()
	}); doErr != nil {
		return datalog.Paths{}, doErr
	}
	return paths, err
}

// LogStats summarizes the current or most recent log session.
func (s *Station) LogStats(ctx context.Context) (datalog.Stats, bool, error) {
	var (
		st datalog.Stats
		ok bool
	)
	err := s.Do(ctx, func() { st, ok = s.logger.Stats() })
	return st, ok, err
}

// Command sends one line to the vehicle.
func (s *Station) Command(ctx context.Context, line string) error {
	var err error
	if doErr := s.Do(ctx, func() {
		if s.src == nil {
			err = ErrNotConnected
			return
		}
		err = s.src.WriteLine(line)
	}); doErr != nil {
		return doErr
	}
	return err
}
