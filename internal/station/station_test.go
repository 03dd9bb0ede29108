// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package station

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rocket_groundstation/internal/attitude"
	"github.com/relabs-tech/rocket_groundstation/internal/config"
	"github.com/relabs-tech/rocket_groundstation/internal/datalog"
	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

type fakeSource struct {
	lines   []string
	err     error
	written []string
	closed  bool
}

func (f *fakeSource) TryReadLine() (string, bool) {
	if len(f.lines) == 0 {
		return "", false
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, true
}

func (f *fakeSource) WriteLine(line string) error {
	f.written = append(f.written, line)
	return nil
}

func (f *fakeSource) Err() error { return f.err }

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeSurface struct {
	draws int
	last  attitude.Frame
}

func (f *fakeSurface) Draw(frame attitude.Frame) error {
	f.draws++
	f.last = frame
	return nil
}

type recordingSink struct {
	msgs []telemetry.Message
}

func (r *recordingSink) Publish(msg telemetry.Message) { r.msgs = append(r.msgs, msg) }

var t0 = time.Date(2026, 7, 4, 9, 30, 0, 0, time.UTC)

type harness struct {
	station *Station
	clock   *timeutil.MockClock
	sources []*fakeSource
	dialErr error
	surface *fakeSurface
	sink    *recordingSink
}

func newHarness(t *testing.T, tweak func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Dir = t.TempDir()
	cfg.PollInterval = 5 * time.Millisecond
	if tweak != nil {
		tweak(cfg)
	}
	h := &harness{
		clock:   timeutil.NewMockClock(t0),
		surface: &fakeSurface{},
		sink:    &recordingSink{},
	}
	h.station = NewStation(cfg,
		WithClock(h.clock),
		WithSurface(h.surface),
		WithSink(h.sink),
		WithDialer(func(string) (transport.LineSource, error) {
			if h.dialErr != nil {
				return nil, h.dialErr
			}
			src := &fakeSource{}
			h.sources = append(h.sources, src)
			return src, nil
		}),
	)
	return h
}

func (h *harness) src() *fakeSource {
	return h.sources[len(h.sources)-1]
}

const sampleLine = `{"roll":10,"pitch":-5,"yaw":90,"altitude":120,"bno_status":"OK","bno_ax":0,"bno_ay":0,"bno_az":9.8}`

func TestStation_DrainsAllLinesAndRedrawsOnce(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.station.connect("/dev/ttyUSB0"))
	assert.Equal(t, "CONNECTED: /dev/ttyUSB0", h.station.status)

	h.src().lines = []string{
		`{"status":"ARMED"}`,
		sampleLine,
		`garbage`,
		`{"roll":11,"pitch":-5,"yaw":91,"altitude":130}`,
		`{"error":"bmp timeout"}`,
		`{"roll":12,"pitch":-5,"yaw":92,"altitude":140}`,
	}
	h.station.tick()

	assert.Equal(t, 3, h.station.window.Len())
	assert.Equal(t, 1, h.surface.draws)
	assert.Equal(t, attitude.State{Roll: 12, Pitch: -5, Yaw: 92, Altitude: 140}, h.surface.last.State)
	assert.Equal(t, Counters{Lines: 6, Samples: 3, Dropped: 1, Redraws: 1}, h.station.counters)

	st, ok := h.station.lastStatus.Get()
	require.True(t, ok)
	assert.Equal(t, "ARMED", st.Text)
	er, ok := h.station.lastError.Get()
	require.True(t, ok)
	assert.Equal(t, "bmp timeout", er.Text)

	require.Len(t, h.sink.msgs, 5)
	assert.IsType(t, telemetry.Status{}, h.sink.msgs[0])
	assert.IsType(t, telemetry.Error{}, h.sink.msgs[3])

	h.station.tick()
	assert.Equal(t, 1, h.surface.draws, "an empty tick does not redraw")
}

func TestStation_ElapsedTime(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.station.connect(""))

	h.clock.Advance(1500 * time.Millisecond)
	h.src().lines = []string{`{"roll":0,"pitch":0,"yaw":0,"altitude":0,"time":999}`}
	h.station.tick()

	latest, ok := h.station.latest.Get()
	require.True(t, ok)
	assert.InDelta(t, 1.5, latest.Time, 1e-9)
}

func TestStation_ElapsedModeAcrossReconnects(t *testing.T) {
	for _, tt := range []struct {
		mode string
		want float64
	}{
		{config.ElapsedRestart, 1},
		{config.ElapsedContinue, 11},
	} {
		t.Run(tt.mode, func(t *testing.T) {
			h := newHarness(t, func(c *config.Config) { c.Session.ElapsedMode = tt.mode })
			require.NoError(t, h.station.connect(""))
			h.station.closeLink(statusDisconnected)

			h.clock.Advance(10 * time.Second)
			require.NoError(t, h.station.connect(""))
			h.clock.Advance(time.Second)
			h.src().lines = []string{`{"roll":0,"pitch":0,"yaw":0,"altitude":0}`}
			h.station.tick()

			latest, _ := h.station.latest.Get()
			assert.InDelta(t, tt.want, latest.Time, 1e-9)
		})
	}
}

func TestStation_LinkFailureAndReconnect(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.ReconnectDelay = 2 * time.Second })
	require.NoError(t, h.station.connect("/dev/ttyACM0"))
	_, err := h.station.startLog()
	require.NoError(t, err)

	first := h.src()
	first.lines = []string{sampleLine}
	first.err = errors.New("device unplugged")
	h.station.tick()

	assert.True(t, first.closed)
	assert.Nil(t, h.station.src)
	assert.Equal(t, "DISCONNECTED: device unplugged", h.station.status)
	assert.False(t, h.station.logger.Active(), "an active session ends with the link")
	assert.Equal(t, 1, h.station.window.Len(), "lines read before the failure are kept")

	h.clock.Advance(time.Second)
	h.station.tick()
	assert.Len(t, h.sources, 1, "waits for the reconnect delay")

	h.clock.Advance(time.Second)
	h.station.tick()
	require.Len(t, h.sources, 2)
	assert.Equal(t, "CONNECTED: /dev/ttyACM0", h.station.status)
}

func TestStation_ReconnectDisabled(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.ReconnectDelay = -1 })
	require.NoError(t, h.station.connect(""))
	h.src().err = errors.New("gone")
	h.station.tick()

	h.clock.Advance(time.Hour)
	h.station.tick()
	assert.Len(t, h.sources, 1)
}

func TestStation_DialFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.dialErr = errors.New("no such port")
	err := h.station.connect("/dev/nope")
	assert.ErrorIs(t, err, h.dialErr)
	assert.Equal(t, "DISCONNECTED: no such port", h.station.status)

	h.dialErr = nil
	h.clock.Advance(h.station.cfg.ReconnectDelay)
	h.station.tick()
	assert.Len(t, h.sources, 1, "a failed connect is retried")
}

func TestStation_LogAutostart(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Log.Autostart = true })
	require.NoError(t, h.station.connect(""))
	require.True(t, h.station.logger.Active())
	paths := h.station.logger.Paths()

	h.src().lines = []string{sampleLine, `{"status":"ready"}`, `{"error":"bmp timeout"}`, sampleLine}
	h.station.tick()
	h.station.wantConnected = false
	h.station.closeLink(statusDisconnected)

	assert.False(t, h.station.logger.Active())
	doc, err := datalog.ReadDocument(paths.JSON)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Metadata.TotalSamples, "status and error lines are never logged")
	_, err = os.Stat(paths.CSV)
	assert.NoError(t, err)
}

func TestStation_SwitchingPortsKeepsFinishedSession(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Log.Autostart = true })
	require.NoError(t, h.station.connect("/dev/ttyACM0"))
	first := h.station.logger.Paths()
	h.src().lines = []string{sampleLine, sampleLine, sampleLine}
	h.station.tick()

	h.clock.Advance(400 * time.Millisecond)
	require.NoError(t, h.station.connect("/dev/ttyUSB1"))
	require.True(t, h.station.logger.Active())
	second := h.station.logger.Paths()
	assert.NotEqual(t, first, second)

	doc, err := datalog.ReadDocument(first.JSON)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Metadata.TotalSamples)
}

func TestStation_LogFailureLeavesWindowAlone(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.station.connect(""))
	_, err := h.station.startLog()
	require.NoError(t, err)

	// Replace the document path's directory entry so Stop cannot write it.
	require.NoError(t, os.Remove(h.station.logger.Paths().JSON))
	require.NoError(t, os.Mkdir(h.station.logger.Paths().JSON, 0o755))
	h.src().lines = []string{sampleLine}
	h.station.tick()
	h.station.closeLink(statusDisconnected)

	assert.False(t, h.station.logger.Active())
	assert.Equal(t, 1, h.station.window.Len())
}

func TestStation_Snapshot(t *testing.T) {
	h := newHarness(t, nil)
	snap := h.station.snapshot()
	assert.False(t, snap.Connected)
	assert.Equal(t, statusDisconnected, snap.Status)
	assert.Equal(t, map[string]string{"bno": "UNKNOWN", "adxl1": "UNKNOWN", "adxl2": "UNKNOWN", "bmp": "UNKNOWN"}, snap.Sensors)
	assert.True(t, snap.AccelTilt.IsZero())

	require.NoError(t, h.station.connect("/dev/ttyUSB1"))
	h.src().lines = []string{sampleLine}
	h.station.tick()

	snap = h.station.snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, "/dev/ttyUSB1", snap.Link)
	assert.Equal(t, t0, snap.SessionStart)
	assert.Equal(t, "OK", snap.Sensors["bno"])
	assert.Equal(t, "UNKNOWN", snap.Sensors["bmp"])
	tilt, ok := snap.AccelTilt.Get()
	require.True(t, ok)
	assert.InDelta(t, 0, tilt.Roll, 1e-9)
	assert.Equal(t, WindowInfo{Len: 1, Cap: 500, First: 0, Next: 1}, snap.Window)
	assert.Equal(t, "inactive", snap.Logging.State)
}

func TestStation_RunServesRequests(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.station.Run(ctx) }()

	rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer rcancel()

	assert.ErrorIs(t, h.station.Command(rctx, "ARM"), ErrNotConnected)
	require.NoError(t, h.station.Connect(rctx, "/dev/ttyUSB0"))
	require.NoError(t, h.station.Command(rctx, "ARM"))

	require.NoError(t, h.station.PushSample(rctx, telemetry.Sample{Time: 1, Roll: 5, Altitude: 50}))
	require.NoError(t, h.station.Drag(rctx, 20, 10))
	require.NoError(t, h.station.Scroll(rctx, 100))
	require.NoError(t, h.station.SetAttitude(rctx, 1, 2, 3, 4))

	snap, err := h.station.Snapshot(rctx)
	require.NoError(t, err)
	assert.Equal(t, attitude.State{Roll: 1, Pitch: 2, Yaw: 3, Altitude: 4}, snap.Attitude)
	assert.InDelta(t, 10.0, snap.Camera.Azimuth, 1e-9)
	assert.InDelta(t, 25.0, snap.Camera.Elevation, 1e-9)
	assert.InDelta(t, 4.0, snap.Camera.Distance, 1e-9)
	assert.Equal(t, 1, snap.Window.Len)

	ser, err := h.station.Series(rctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, ser.Roll)

	require.NoError(t, h.station.ClearWindow(rctx))
	ser, err = h.station.Series(rctx)
	require.NoError(t, err)
	assert.Zero(t, ser.Len())

	paths, err := h.station.StartLog(rctx)
	require.NoError(t, err)
	_, err = h.station.StartLog(rctx)
	assert.ErrorIs(t, err, datalog.ErrAlreadyActive)
	require.NoError(t, h.station.PushSample(rctx, telemetry.Sample{Time: 2, Altitude: 80}))
	st, ok, err := h.station.LogStats(rctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80.0, st.MaxAltitude)
	stopped, err := h.station.StopLog(rctx)
	require.NoError(t, err)
	assert.Equal(t, paths, stopped)

	require.NoError(t, h.station.Disconnect(rctx))
	snap, err = h.station.Snapshot(rctx)
	require.NoError(t, err)
	assert.False(t, snap.Connected)

	cancel()
	require.NoError(t, <-done)
	assert.ErrorIs(t, h.station.ClearWindow(rctx), ErrStopped)
	assert.Equal(t, []string{"ARM"}, h.sources[0].written)
}
