// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DragDegreesPerPixel = 0.5
	ZoomPerScrollUnit   = 0.01

	MinElevation = -89.0
	MaxElevation = 89.0
	MinDistance  = 2.0
	MaxDistance  = 15.0
)

// Camera orbits the scene origin.
type Camera struct {
	Distance  float64 `json:"distance"`
	Azimuth   float64 `json:"azimuth"`   // degrees about +Y, 0 looks from +Z
	Elevation float64 `json:"elevation"` // degrees above the ground plane
}

// DefaultCamera is the initial viewpoint.
func DefaultCamera() Camera {
	return Camera{Distance: 5, Azimuth: 0, Elevation: 20}
}

// Drag orbits the camera by a pointer motion in pixels.
func (c *Camera) Drag(dx, dy float64) {
	c.Azimuth = math.Mod(c.Azimuth+dx*DragDegreesPerPixel, 360)
	c.Elevation = clamp(c.Elevation+dy*DragDegreesPerPixel, MinElevation, MaxElevation)
}

// Scroll zooms; a positive delta moves the camera closer.
func (c *Camera) Scroll(delta float64) {
	c.Distance = clamp(c.Distance-delta*ZoomPerScrollUnit, MinDistance, MaxDistance)
}

// Eye returns the camera position in scene coordinates.
func (c Camera) Eye() r3.Vec {
	el := c.Elevation * math.Pi / 180
	az := c.Azimuth * math.Pi / 180
	return r3.Vec{
		X: c.Distance * math.Cos(el) * math.Sin(az),
		Y: c.Distance * math.Sin(el),
		Z: c.Distance * math.Cos(el) * math.Cos(az),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
