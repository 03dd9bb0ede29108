// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// Triangle is one face with per-vertex normals. Vertices wind
// counter-clockwise when seen from the side the normals point to.
type Triangle struct {
	P [3]r3.Vec
	N [3]r3.Vec
}

// Mesh is a set of triangles drawn with one color.
type Mesh struct {
	Name      string
	Color     Color
	Triangles []Triangle
}

// Transformed returns a copy of m moved by t.
func (m Mesh) Transformed(t Transform) Mesh {
	out := Mesh{Name: m.Name, Color: m.Color, Triangles: make([]Triangle, len(m.Triangles))}
	for i, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			out.Triangles[i].P[k] = t.Apply(tri.P[k])
			out.Triangles[i].N[k] = t.ApplyDir(tri.N[k])
		}
	}
	return out
}

// Segment is a straight line with a color and a width in pixels.
type Segment struct {
	A, B  r3.Vec
	Color Color
	Width float64
}

// Transformed returns a copy of s moved by t.
func (s Segment) Transformed(t Transform) Segment {
	s.A = t.Apply(s.A)
	s.B = t.Apply(s.B)
	return s
}

// face builds a triangle and fixes its winding to agree with the normals.
func face(a, b, c, na, nb, nc r3.Vec) Triangle {
	n := r3.Add(r3.Add(na, nb), nc)
	if r3.Dot(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)), n) < 0 {
		b, c = c, b
		nb, nc = nc, nb
	}
	return Triangle{P: [3]r3.Vec{a, b, c}, N: [3]r3.Vec{na, nb, nc}}
}

// circle returns segments points on a horizontal circle around center.
// Index i and i+segments map to the same point, so shared rims match exactly.
func circle(center r3.Vec, radius float64, segments int) []r3.Vec {
	pts := make([]r3.Vec, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(segments)
		pts[i] = r3.Add(center, r3.Vec{X: radius * math.Cos(a), Z: radius * math.Sin(a)})
	}
	return pts
}

func radial(i, segments int) r3.Vec {
	a := 2 * math.Pi * float64(i) / float64(segments)
	return r3.Vec{X: math.Cos(a), Z: math.Sin(a)}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// disc closes a rim with a triangle fan facing along normal.
func disc(center r3.Vec, rim []r3.Vec, normal r3.Vec) []Triangle {
	tris := make([]Triangle, 0, len(rim))
	for i := range rim {
		j := (i + 1) % len(rim)
		tris = append(tris, face(center, rim[i], rim[j], normal, normal, normal))
	}
	return tris
}

// Cylinder returns a closed cylinder whose bottom disc is centered on base
// and whose axis runs height units along +Y (a negative height runs down).
func Cylinder(base r3.Vec, radius, height float64, segments int) []Triangle {
	if segments < 3 || radius <= 0 || height == 0 {
		return nil
	}
	top := r3.Add(base, r3.Vec{Y: height})
	lower := circle(base, radius, segments)
	upper := circle(top, radius, segments)

	tris := make([]Triangle, 0, 4*segments)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		ni, nj := radial(i, segments), radial(j, segments)
		tris = append(tris,
			face(lower[i], lower[j], upper[j], ni, nj, nj),
			face(lower[i], upper[j], upper[i], ni, nj, ni),
		)
	}
	up := r3.Vec{Y: sign(height)}
	tris = append(tris, disc(top, upper, up)...)
	tris = append(tris, disc(base, lower, r3.Scale(-1, up))...)
	return tris
}

// Cone returns a cone whose rim of the given radius lies in the horizontal
// plane through base and whose apex sits height units along +Y (negative
// points down). A positive capRadius closes the rim plane with a disc of
// that radius; zero leaves the cone open there.
func Cone(base r3.Vec, radius, height float64, segments int, capRadius float64) []Triangle {
	if segments < 3 || radius <= 0 || height == 0 {
		return nil
	}
	apex := r3.Add(base, r3.Vec{Y: height})
	rim := circle(base, radius, segments)

	slant := func(i2, seg2 int) r3.Vec {
		// Normal of the side surface at angle i2/seg2 of a full turn.
		a := 2 * math.Pi * float64(i2) / float64(seg2)
		h := math.Abs(height)
		return r3.Unit(r3.Vec{X: h * math.Cos(a), Y: radius * sign(height), Z: h * math.Sin(a)})
	}

	tris := make([]Triangle, 0, 2*segments)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		tris = append(tris, face(apex, rim[i], rim[j],
			slant(2*i+1, 2*segments), slant(2*i, 2*segments), slant(2*i+2, 2*segments)))
	}
	if capRadius > 0 {
		capRim := rim
		if capRadius != radius {
			capRim = circle(base, capRadius, segments)
		}
		tris = append(tris, disc(base, capRim, r3.Vec{Y: -sign(height)})...)
	}
	return tris
}

// Fin returns a closed rectangular plate. Its inner bottom edge starts at
// base, it extends width along +X, height along +Y and is thickness thick
// around the base's Z.
func Fin(base r3.Vec, width, height, thickness float64) []Triangle {
	if width <= 0 || height <= 0 || thickness <= 0 {
		return nil
	}
	h := thickness / 2
	corner := func(x, y, z float64) r3.Vec {
		return r3.Add(base, r3.Vec{X: x, Y: y, Z: z})
	}
	quad := func(a, b, c, d, n r3.Vec) []Triangle {
		return []Triangle{face(a, b, c, n, n, n), face(a, c, d, n, n, n)}
	}

	var (
		p000 = corner(0, 0, -h)
		p100 = corner(width, 0, -h)
		p110 = corner(width, height, -h)
		p010 = corner(0, height, -h)
		p001 = corner(0, 0, h)
		p101 = corner(width, 0, h)
		p111 = corner(width, height, h)
		p011 = corner(0, height, h)
	)
	var tris []Triangle
	tris = append(tris, quad(p001, p101, p111, p011, r3.Vec{Z: 1})...)  // front
	tris = append(tris, quad(p000, p010, p110, p100, r3.Vec{Z: -1})...) // back
	tris = append(tris, quad(p010, p011, p111, p110, r3.Vec{Y: 1})...)  // top
	tris = append(tris, quad(p000, p100, p101, p001, r3.Vec{Y: -1})...) // bottom
	tris = append(tris, quad(p100, p110, p111, p101, r3.Vec{X: 1})...)  // outer edge
	tris = append(tris, quad(p000, p001, p011, p010, r3.Vec{X: -1})...) // inner edge
	return tris
}

// Loop returns a closed horizontal polyline around center.
func Loop(center r3.Vec, radius float64, segments int, c Color, width float64) []Segment {
	if segments < 3 {
		return nil
	}
	pts := circle(center, radius, segments)
	segs := make([]Segment, len(pts))
	for i := range pts {
		segs[i] = Segment{A: pts[i], B: pts[(i+1)%len(pts)], Color: c, Width: width}
	}
	return segs
}
