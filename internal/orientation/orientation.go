// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Pose is an attitude in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// FromAccel computes roll and pitch from a resting accelerometer reading
// (in any unit). Yaw is not observable from gravity alone and is 0.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func FromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// GravityAccel is the inverse of FromAccel: the reading a resting
// accelerometer with pose p reports for gravity of magnitude g.
func GravityAccel(p Pose, g float64) (ax, ay, az float64) {
	roll := p.Roll * math.Pi / 180
	pitch := p.Pitch * math.Pi / 180
	return -g * math.Sin(pitch), g * math.Cos(pitch) * math.Sin(roll), g * math.Cos(pitch) * math.Cos(roll)
}
