// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Scene axes. +Y is up; the vehicle's long axis points along +Y at rest.
var (
	// Vertical is the yaw axis.
	Vertical = r3.Vec{Y: 1}
	// Lateral is the pitch axis.
	Lateral = r3.Vec{X: 1}
	// Longitudinal is the roll axis.
	Longitudinal = r3.Vec{Z: 1}
)

// Transform is a rigid motion: rotate, then shift.
type Transform struct {
	Rot   r3.Rotation
	Shift r3.Vec
}

// Identity returns the transform that leaves every point in place.
func Identity() Transform {
	return Transform{Rot: r3.Rotation(quat.Number{Real: 1})}
}

// Translate returns a pure translation by d.
func Translate(d r3.Vec) Transform {
	t := Identity()
	t.Shift = d
	return t
}

// RotateAbout returns a right-handed rotation of deg degrees about axis.
func RotateAbout(deg float64, axis r3.Vec) Transform {
	return Transform{Rot: r3.NewRotation(deg*math.Pi/180, axis)}
}

// Apply maps a point.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.Rot.Rotate(p), t.Shift)
}

// ApplyDir maps a direction; the shift does not apply.
func (t Transform) ApplyDir(v r3.Vec) r3.Vec {
	return t.Rot.Rotate(v)
}

// Compose returns the transform that applies the last argument first,
// the way nested matrix pushes do: Compose(a, b)(p) == a(b(p)).
func Compose(ts ...Transform) Transform {
	out := Identity()
	for _, t := range ts {
		out = Transform{
			Rot:   r3.Rotation(quat.Mul(quat.Number(out.Rot), quat.Number(t.Rot))),
			Shift: out.Apply(t.Shift),
		}
	}
	return out
}

// Orientation returns the vehicle rotation for the given Euler angles in
// degrees. Yaw about Vertical is applied first in the parent frame, then
// pitch about the yawed Lateral axis, then roll about the resulting
// Longitudinal axis. The order is fixed; rotations do not commute.
func Orientation(roll, pitch, yaw float64) Transform {
	return Compose(
		RotateAbout(yaw, Vertical),
		RotateAbout(pitch, Lateral),
		RotateAbout(roll, Longitudinal),
	)
}
