// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Flight profile timing, in seconds of a repeating cycle.
const (
	FlightCycle  = 60.0
	padHold      = 5.0
	flightTime   = 30.0
	peakAltitude = 1000.0
)

// PoseAt is a smoothly changing simulated pose t seconds after start.
func PoseAt(t float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(t),
		Pitch: 15 * math.Cos(t*0.7),
		Yaw:   math.Mod(t*30, 360),
	}
}

// FlightProfile is the simulated altitude (m) and vertical speed (m/s)
// t seconds after start: a pad hold, a half-sine climb and descent, then
// rest until the cycle repeats.
func FlightProfile(t float64) (altitude, velocity float64) {
	phase := math.Mod(t, FlightCycle)
	if phase < padHold || phase >= padHold+flightTime {
		return 0, 0
	}
	w := math.Pi / flightTime
	x := (phase - padHold) * w
	return peakAltitude * math.Sin(x), peakAltitude * w * math.Cos(x)
}
