// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// AltitudeScale converts metres to scene units.
	AltitudeScale = 0.01
	// FlameAltitude is the altitude above which the exhaust is drawn.
	FlameAltitude = 0.1
	AxisLength    = 1.5

	groundY         = -2.0
	gridHalfExtent  = 10
	horizonRadius   = 8.0
	horizonSegments = 50
	bodySegments    = 20
	ringSegments    = 30
	flameSegments   = 15
)

var (
	bodyColor    = RGB(0.9, 0.9, 0.95)
	noseColor    = RGB(0.95, 0.95, 1.0)
	nozzleColor  = RGB(0.3, 0.3, 0.4)
	finColor     = RGB(0.2, 0.2, 0.3)
	ringColor    = RGB(0, 0, 0)
	gridColor    = Color{R: 0.3, G: 0.3, B: 0.3, A: 0.5}
	horizonColor = Color{R: 0.5, G: 0.5, B: 0.7, A: 0.6}
	outerFlame   = Color{R: 1, G: 0.5, B: 0, A: 0.7}
	innerFlame   = RGB(1, 1, 0.3)
)

// State is the vehicle attitude the view was last given.
type State struct {
	Roll     float64 `json:"roll"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Altitude float64 `json:"altitude"`
}

// Frame is everything a backend needs to draw one picture. Geometry is in
// world space.
type Frame struct {
	State  State
	Camera Camera
	Eye    r3.Vec
	Target r3.Vec
	Up     r3.Vec
	Model  Transform

	// Ground is the static grid and horizon ring.
	Ground []Segment
	// Meshes holds the vehicle parts and, when lit, the exhaust.
	Meshes []Mesh
	// Details are line features painted on the vehicle.
	Details []Segment
	Axes    [3]Segment
	Flame   bool
}

// Surface draws frames. Implementations must not retain the frame's slices.
type Surface interface {
	Draw(f Frame) error
}

// View holds the attitude state and camera and produces frames. It is not
// safe for concurrent use.
type View struct {
	state   State
	camera  Camera
	ground  []Segment
	vehicle []Mesh
	details []Segment
	flame   []Mesh
}

// NewView returns a view at rest with the default camera.
func NewView() *View {
	return &View{
		camera:  DefaultCamera(),
		ground:  groundLines(),
		vehicle: vehicleMeshes(),
		details: vehicleDetails(),
		flame:   flameMeshes(),
	}
}

// SetAttitude replaces the attitude state. Angles are degrees, altitude metres.
func (v *View) SetAttitude(roll, pitch, yaw, altitude float64) {
	v.state = State{Roll: roll, Pitch: pitch, Yaw: yaw, Altitude: altitude}
}

func (v *View) State() State   { return v.state }
func (v *View) Camera() Camera { return v.camera }

// Drag orbits the camera; see Camera.Drag.
func (v *View) Drag(dx, dy float64) { v.camera.Drag(dx, dy) }

// Scroll zooms the camera; see Camera.Scroll.
func (v *View) Scroll(delta float64) { v.camera.Scroll(delta) }

// ModelTransform places the vehicle: lift by altitude, then orient.
func ModelTransform(s State) Transform {
	return Compose(
		Translate(r3.Vec{Y: s.Altitude * AltitudeScale}),
		Orientation(s.Roll, s.Pitch, s.Yaw),
	)
}

// Frame computes the scene for the current state.
func (v *View) Frame() Frame {
	model := ModelTransform(v.state)
	f := Frame{
		State:  v.state,
		Camera: v.camera,
		Eye:    v.camera.Eye(),
		Up:     Vertical,
		Model:  model,
		Ground: append([]Segment(nil), v.ground...),
		Flame:  v.state.Altitude > FlameAltitude,
	}
	for _, m := range v.vehicle {
		f.Meshes = append(f.Meshes, m.Transformed(model))
	}
	if f.Flame {
		for _, m := range v.flame {
			f.Meshes = append(f.Meshes, m.Transformed(model))
		}
	}
	for _, s := range v.details {
		f.Details = append(f.Details, s.Transformed(model))
	}
	for i, axis := range []struct {
		dir r3.Vec
		c   Color
	}{
		{Lateral, RGB(1, 0, 0)},
		{Vertical, RGB(0, 1, 0)},
		{Longitudinal, RGB(0, 0, 1)},
	} {
		f.Axes[i] = Segment{B: r3.Scale(AxisLength, axis.dir), Color: axis.c, Width: 3}.Transformed(model)
	}
	return f
}

func groundLines() []Segment {
	var segs []Segment
	for i := -gridHalfExtent; i <= gridHalfExtent; i++ {
		x := float64(i)
		segs = append(segs,
			Segment{A: r3.Vec{X: x, Y: groundY, Z: -gridHalfExtent}, B: r3.Vec{X: x, Y: groundY, Z: gridHalfExtent}, Color: gridColor, Width: 1},
			Segment{A: r3.Vec{X: -gridHalfExtent, Y: groundY, Z: x}, B: r3.Vec{X: gridHalfExtent, Y: groundY, Z: x}, Color: gridColor, Width: 1},
		)
	}
	return append(segs, Loop(r3.Vec{Y: groundY}, horizonRadius, horizonSegments, horizonColor, 2)...)
}

func vehicleMeshes() []Mesh {
	var fins []Triangle
	plate := Fin(r3.Vec{X: 0.2, Y: 0.5}, 0.4, 0.6, 0.05)
	for k := 0; k < 4; k++ {
		fins = append(fins, Mesh{Triangles: plate}.Transformed(RotateAbout(float64(k)*90, Vertical)).Triangles...)
	}
	return []Mesh{
		{Name: "body", Color: bodyColor, Triangles: Cylinder(r3.Vec{Y: -1.5}, 0.2, 3.0, bodySegments)},
		{Name: "nose", Color: noseColor, Triangles: Cone(r3.Vec{Y: 1.5}, 0.2, 0.8, bodySegments, 0)},
		{Name: "nozzle", Color: nozzleColor, Triangles: Cone(r3.Vec{Y: -1.5}, 0.15, -0.4, bodySegments, 0.18)},
		{Name: "fins", Color: finColor, Triangles: fins},
	}
}

func vehicleDetails() []Segment {
	var segs []Segment
	for _, y := range []float64{-0.5, 0, 0.5} {
		segs = append(segs, Loop(r3.Vec{Y: y}, 0.21, ringSegments, ringColor, 2)...)
	}
	return segs
}

// flameMeshes points the exhaust down the vehicle axis from the nozzle.
func flameMeshes() []Mesh {
	return []Mesh{
		{Name: "flame_outer", Color: outerFlame, Triangles: Cone(r3.Vec{Y: -1.5}, 0.15, -0.6, flameSegments, 0)},
		{Name: "flame_inner", Color: innerFlame, Triangles: Cone(r3.Vec{Y: -1.5}, 0.08, -0.4, flameSegments, 0)},
	}
}
