// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

// Message is one decoded record: a Sample, a Status or an Error.
type Message interface {
	isMessage()
}

// Sample is one decoded vehicle measurement. It is a value type; the
// decoder hands every consumer its own copy.
type Sample struct {
	// Time is the receiver-side elapsed session time in seconds.
	Time float64 `json:"time"`

	Roll     float64 `json:"roll"`     // degrees
	Pitch    float64 `json:"pitch"`    // degrees
	Yaw      float64 `json:"yaw"`      // degrees
	Altitude float64 `json:"altitude"` // meters

	Velocity Optional[float64] `json:"velocity,omitzero"` // m/s

	// Sensor health, e.g. "OK" or "FAIL".
	BNOStatus   Optional[string] `json:"bno_status,omitzero"`
	ADXL1Status Optional[string] `json:"adxl1_status,omitzero"`
	ADXL2Status Optional[string] `json:"adxl2_status,omitzero"`
	BMPStatus   Optional[string] `json:"bmp_status,omitzero"`

	// Raw BNO055 accelerometer axes.
	BNOAx Optional[float64] `json:"bno_ax,omitzero"`
	BNOAy Optional[float64] `json:"bno_ay,omitzero"`
	BNOAz Optional[float64] `json:"bno_az,omitzero"`
}

// Status is an informational message from the vehicle, e.g. {"status":"ready"}.
type Status struct {
	Time float64 `json:"time"`
	Text string  `json:"status"`
}

// Error is an error report from the vehicle, e.g. {"error":"bmp timeout"}.
type Error struct {
	Time float64 `json:"time"`
	Text string  `json:"error"`
}

func (Sample) isMessage() {}
func (Status) isMessage() {}
func (Error) isMessage()  {}

// UnknownStatus is reported for a sensor whose status was not sent.
const UnknownStatus = "UNKNOWN"
