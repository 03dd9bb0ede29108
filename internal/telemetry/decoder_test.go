// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
)

var sessionStart = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestDecoder() (*Decoder, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(sessionStart)
	return NewDecoder(sessionStart, clock), clock
}

func TestDecode_Telemetry(t *testing.T) {
	d, clock := newTestDecoder()
	clock.Advance(2500 * time.Millisecond)

	msg, ok := d.Decode(`{"roll":1.0,"pitch":2.0,"yaw":3.0,"altitude":100.0}`)
	require.True(t, ok)
	s, isSample := msg.(Sample)
	require.True(t, isSample, "got %T", msg)

	assert.Equal(t, 1.0, s.Roll)
	assert.Equal(t, 2.0, s.Pitch)
	assert.Equal(t, 3.0, s.Yaw)
	assert.Equal(t, 100.0, s.Altitude)
	assert.InDelta(t, 2.5, s.Time, 1e-9)
	assert.GreaterOrEqual(t, s.Time, 0.0)

	_, ok = s.Velocity.Get()
	assert.False(t, ok)
	assert.Equal(t, 0.0, s.Velocity.Or(0))
	assert.Equal(t, UnknownStatus, s.BMPStatus.Or(UnknownStatus))
}

func TestDecode_OptionalFields(t *testing.T) {
	d, _ := newTestDecoder()
	line := `  {"roll":-4.5,"pitch":0,"yaw":359,"altitude":12.5,"velocity":33.1,` +
		`"bno_status":"OK","adxl1_status":"FAIL","bno_ax":0.1,"bno_ay":-9.8,"bno_az":0.3}  `

	msg, ok := d.Decode(line)
	require.True(t, ok)
	s := msg.(Sample)

	v, ok := s.Velocity.Get()
	require.True(t, ok)
	assert.Equal(t, 33.1, v)
	assert.Equal(t, "OK", s.BNOStatus.Or(UnknownStatus))
	assert.Equal(t, "FAIL", s.ADXL1Status.Or(UnknownStatus))
	assert.Equal(t, UnknownStatus, s.ADXL2Status.Or(UnknownStatus))
	assert.Equal(t, -9.8, s.BNOAy.Or(0))
}

func TestDecode_SenderTimeIsOverwritten(t *testing.T) {
	d, clock := newTestDecoder()
	clock.Advance(time.Second)

	msg, ok := d.Decode(`{"time":9999,"roll":0,"pitch":0,"yaw":0,"altitude":0}`)
	require.True(t, ok)
	assert.InDelta(t, 1.0, msg.(Sample).Time, 1e-9)
}

func TestDecode_ElapsedNeverNegative(t *testing.T) {
	clock := timeutil.NewMockClock(sessionStart.Add(-time.Second))
	d := NewDecoder(sessionStart, clock)

	msg, ok := d.Decode(`{"roll":0,"pitch":0,"yaw":0,"altitude":0}`)
	require.True(t, ok)
	assert.Equal(t, 0.0, msg.(Sample).Time)
}

func TestDecode_StatusAndError(t *testing.T) {
	d, _ := newTestDecoder()

	msg, ok := d.Decode(`{"status":"ready"}`)
	require.True(t, ok)
	st, isStatus := msg.(Status)
	require.True(t, isStatus, "got %T", msg)
	assert.Equal(t, "ready", st.Text)

	msg, ok = d.Decode(`{"error":"bmp390 not found"}`)
	require.True(t, ok)
	e, isErr := msg.(Error)
	require.True(t, isErr, "got %T", msg)
	assert.Equal(t, "bmp390 not found", e.Text)

	msg, ok = d.Decode(`{"status":3}`)
	require.True(t, ok)
	assert.Equal(t, "3", msg.(Status).Text)
}

func TestDecode_PartialTelemetryWithStatusIsStatus(t *testing.T) {
	d, _ := newTestDecoder()
	msg, ok := d.Decode(`{"roll":1,"pitch":2,"status":"calibrating"}`)
	require.True(t, ok)
	assert.IsType(t, Status{}, msg)
}

func TestDecode_Dropped(t *testing.T) {
	d, _ := newTestDecoder()

	cases := map[string]string{
		"empty":            "",
		"plain text":       "BNO055 init OK",
		"no closing brace": `{"roll":1,"pitch":2,"yaw":3,"altitude":4`,
		"no opening brace": `"roll":1}`,
		"invalid json":     `{roll:1}`,
		"array":            `[1,2,3]`,
		"brace garbage":    `{1}`,
		"partial":          `{"roll":1,"pitch":2,"yaw":3}`,
		"unrecognized":     `{"foo":"bar"}`,
		"wrong type":       `{"roll":"left","pitch":2,"yaw":3,"altitude":4}`,
		"null required":    `{"roll":null,"pitch":2,"yaw":3,"altitude":4}`,
		"null altitude":    `{"roll":1,"pitch":2,"yaw":3,"altitude":null}`,
		"wrong opt type":   `{"roll":1,"pitch":2,"yaw":3,"altitude":4,"velocity":"fast"}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				msg, ok := d.Decode(line)
				assert.False(t, ok)
				assert.Nil(t, msg)
			})
		})
	}
}

func TestSample_JSONCarriesOnlyPresentFields(t *testing.T) {
	s := Sample{Time: 1.5, Roll: 1, Pitch: 2, Yaw: 3, Altitude: 4, Velocity: Some(5.0), BMPStatus: Some("OK")}

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Contains(t, fields, "velocity")
	assert.Contains(t, fields, "bmp_status")
	assert.NotContains(t, fields, "bno_status")
	assert.NotContains(t, fields, "bno_ax")
}

func TestOptional_NullIsAbsent(t *testing.T) {
	var o Optional[float64]
	require.NoError(t, json.Unmarshal([]byte("null"), &o))
	_, ok := o.Get()
	assert.False(t, ok)
	assert.True(t, o.IsZero())

	require.NoError(t, json.Unmarshal([]byte("2.5"), &o))
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
}
