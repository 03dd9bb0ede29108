// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rocket_groundstation/internal/orientation"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
)

func TestPortOptions_Normalize(t *testing.T) {
	got, err := PortOptions{Port: " /dev/ttyUSB0 "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{
		Port:        "/dev/ttyUSB0",
		BaudRate:    DefaultBaudRate,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		SettleDelay: DefaultSettleDelay,
	}, got)

	got, err = PortOptions{Port: "COM3", BaudRate: 9600, Parity: "even", SettleDelay: -1}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 9600, got.BaudRate)
	assert.Equal(t, "E", got.Parity)
	assert.Zero(t, got.SettleDelay)
}

func TestPortOptions_NormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"missing port", PortOptions{}},
		{"data bits", PortOptions{Port: "p", DataBits: 9}},
		{"stop bits", PortOptions{Port: "p", StopBits: 3}},
		{"parity", PortOptions{Port: "p", Parity: "mark"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestPortOptions_OpenOptions(t *testing.T) {
	o, err := PortOptions{Port: "/dev/ttyACM0", Parity: "O", StopBits: 2}.Normalize()
	require.NoError(t, err)
	oo := o.openOptions()
	assert.Equal(t, "/dev/ttyACM0", oo.PortName)
	assert.Equal(t, uint(115200), oo.BaudRate)
	assert.Equal(t, uint(2), oo.StopBits)
	assert.Equal(t, uint(1), oo.MinimumReadSize)
	assert.Equal(t, serial.PARITY_ODD, oo.ParityMode)
}

func TestLineQueue_DropsOldestWhenFull(t *testing.T) {
	q := newLineQueue(2)
	q.push("a")
	q.push("b")
	q.push("c")

	assert.Equal(t, uint64(1), q.Dropped())
	line, ok := q.TryReadLine()
	require.True(t, ok)
	assert.Equal(t, "b", line)
	line, _ = q.TryReadLine()
	assert.Equal(t, "c", line)
	_, ok = q.TryReadLine()
	assert.False(t, ok)
}

func TestLineQueue_FirstErrorWins(t *testing.T) {
	q := newLineQueue(1)
	first := errors.New("first")
	q.fail(first)
	q.fail(errors.New("second"))
	assert.Same(t, first, q.Err())
}

func readLines(t *testing.T, src LineSource, n int) []string {
	t.Helper()
	var lines []string
	require.Eventually(t, func() bool {
		for {
			line, ok := src.TryReadLine()
			if !ok {
				break
			}
			lines = append(lines, line)
		}
		return len(lines) >= n
	}, time.Second, 5*time.Millisecond)
	return lines
}

func TestSerialSource_ReadsLines(t *testing.T) {
	port := NewMockPort()
	src := NewSerialSource("mock", port, 0)
	defer src.Close()

	_, ok := src.TryReadLine()
	assert.False(t, ok)

	port.AddReadData("{\"status\":\"BOOT\"}\r\n\n{\"roll\":1,")
	port.AddReadData("\"pitch\":2,\"yaw\":3,\"altitude\":4}\n")

	assert.Equal(t, []string{
		`{"status":"BOOT"}`,
		`{"roll":1,"pitch":2,"yaw":3,"altitude":4}`,
	}, readLines(t, src, 2))
	assert.NoError(t, src.Err())
}

func TestSerialSource_ReadFailure(t *testing.T) {
	port := NewMockPort()
	src := NewSerialSource("mock", port, 0)
	defer src.Close()

	boom := errors.New("device unplugged")
	port.AddReadData("{\"status\":\"LAST\"}\n")
	port.FailReads(boom)

	require.Eventually(t, func() bool { return src.Err() != nil }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, src.Err(), boom)

	line, ok := src.TryReadLine()
	require.True(t, ok, "lines received before the failure stay readable")
	assert.Equal(t, `{"status":"LAST"}`, line)
}

func TestSerialSource_WriteAndClose(t *testing.T) {
	port := NewMockPort()
	src := NewSerialSource("mock", port, time.Hour)

	require.NoError(t, src.WriteLine("ARM"))
	require.NoError(t, src.WriteLine("DISARM\n"))
	assert.Equal(t, "ARM\nDISARM\n", port.Written())

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 1, port.CloseCalls())
	assert.ErrorIs(t, src.Err(), ErrClosed)
	assert.ErrorIs(t, src.WriteLine("ARM"), ErrClosed)
}

func TestSerialSource_WriteError(t *testing.T) {
	port := NewMockPort()
	src := NewSerialSource("mock", port, 0)
	defer src.Close()

	boom := errors.New("tx fault")
	port.FailWrites(boom)
	assert.ErrorIs(t, src.WriteLine("PING"), boom)
}

func TestMQTTSource_Deliver(t *testing.T) {
	s := &MQTTSource{q: newLineQueue(8)}
	s.deliver([]byte("{\"status\":\"A\"}\n\n  {\"status\":\"B\"}  \n"))

	assert.Equal(t, []string{`{"status":"A"}`, `{"status":"B"}`}, readLines(t, s, 2))
}

func TestMQTTOptions_Defaults(t *testing.T) {
	o := MQTTOptions{Broker: "tcp://localhost:1883"}.withDefaults()
	assert.Equal(t, DefaultTelemetryTopic, o.TelemetryTopic)
	assert.Equal(t, DefaultCommandTopic, o.CommandTopic)
	assert.Contains(t, o.ClientID, "groundstation-")

	o = MQTTOptions{ClientID: "fixed"}.withDefaults()
	assert.Equal(t, "fixed", o.ClientID)
}

func TestDialMQTT_RequiresBroker(t *testing.T) {
	_, err := DialMQTT(MQTTOptions{})
	assert.Error(t, err)
}

func TestSimSource(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC))
	src := NewSimSource(clock, 100*time.Millisecond)

	line, ok := src.TryReadLine()
	require.True(t, ok)
	assert.Equal(t, `{"status":"SIMULATOR READY"}`, line)

	line, ok = src.TryReadLine()
	require.True(t, ok, "first sample is due immediately")
	var rec simRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "OK", rec.BNOStatus)
	assert.InDelta(t, 15, rec.Pitch, 1e-9)

	_, ok = src.TryReadLine()
	assert.False(t, ok, "nothing until the next period")

	clock.Advance(350 * time.Millisecond)
	n := 0
	for {
		if _, ok := src.TryReadLine(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 3, n)
}

func TestSimSource_AccelMatchesPose(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC))
	src := NewSimSource(clock, time.Second)
	src.TryReadLine()
	clock.Advance(7 * time.Second)

	var last simRecord
	for {
		line, ok := src.TryReadLine()
		if !ok {
			break
		}
		require.NoError(t, json.Unmarshal([]byte(line), &last))
	}
	tilt := orientation.FromAccel(last.BNOAx, last.BNOAy, last.BNOAz)
	assert.InDelta(t, last.Roll, tilt.Roll, 1e-6)
	assert.InDelta(t, last.Pitch, tilt.Pitch, 1e-6)
	assert.Greater(t, last.Altitude, 0.0)
}

func TestSimSource_BacklogCapped(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC))
	src := NewSimSource(clock, 10*time.Millisecond)
	src.TryReadLine()
	src.TryReadLine()

	clock.Advance(time.Minute)
	n := 0
	for {
		if _, ok := src.TryReadLine(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, simBacklog, n)
}

func TestSimSource_CommandAckAndClose(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC))
	src := NewSimSource(clock, time.Second)
	src.TryReadLine()
	src.TryReadLine()

	require.NoError(t, src.WriteLine("PARACHUTE\n"))
	line, ok := src.TryReadLine()
	require.True(t, ok)
	assert.Equal(t, `{"status":"ACK PARACHUTE"}`, line)

	require.NoError(t, src.Close())
	assert.ErrorIs(t, src.Err(), ErrClosed)
	assert.ErrorIs(t, src.WriteLine("X"), ErrClosed)
	_, ok = src.TryReadLine()
	assert.False(t, ok)
}
