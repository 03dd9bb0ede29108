// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package raster draws attitude frames into images with a small software
// pipeline: look-at camera, perspective projection, Lambert shading and a
// painter's sort. It has no GPU dependency so it runs headless on the
// ground-station host.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/rocket_groundstation/internal/attitude"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480

	fovDegrees = 45.0
	nearPlane  = 0.1
	ambient    = 0.3
	diffuse    = 0.8

	hudFontSize = 13.0
	hudDPI      = 72.0
)

var (
	background = color.NRGBA{R: 26, G: 26, B: 38, A: 255}
	lightPos   = r3.Vec{X: 5, Y: 5, Z: 5}
	hudColor   = color.NRGBA{R: 230, G: 230, B: 230, A: 255}
)

// Renderer turns frames into RGBA images. It reuses its rasterizer and is
// not safe for concurrent use.
type Renderer struct {
	width, height int
	HUD           bool
	z             vector.Rasterizer
	face          font.Face
}

var parseHUDFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(goregular.TTF)
})

func hudFace() font.Face {
	f, err := parseHUDFont()
	if err != nil {
		log.Printf("raster: hud font unavailable, using fixed face: %v", err)
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{Size: hudFontSize, DPI: hudDPI, Hinting: font.HintingNone})
}

// New returns a renderer for width x height images. Non-positive sizes
// fall back to the defaults.
func New(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height, HUD: true, face: hudFace()}
}

// Bounds returns the image rectangle the renderer produces.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// camera maps world points to screen pixels.
type camera struct {
	eye, right, up, forward r3.Vec
	focal                   float64
	cx, cy                  float64
}

func newCamera(f attitude.Frame, width, height int) camera {
	forward := r3.Unit(r3.Sub(f.Target, f.Eye))
	right := r3.Unit(r3.Cross(forward, f.Up))
	return camera{
		eye:     f.Eye,
		forward: forward,
		right:   right,
		up:      r3.Cross(right, forward),
		focal:   float64(height) / 2 / math.Tan(fovDegrees*math.Pi/360),
		cx:      float64(width) / 2,
		cy:      float64(height) / 2,
	}
}

// view returns p in camera space; Z is the distance in front of the eye.
func (c camera) view(p r3.Vec) r3.Vec {
	d := r3.Sub(p, c.eye)
	return r3.Vec{X: r3.Dot(d, c.right), Y: r3.Dot(d, c.up), Z: r3.Dot(d, c.forward)}
}

func (c camera) project(v r3.Vec) (float32, float32) {
	return float32(c.cx + v.X/v.Z*c.focal), float32(c.cy - v.Y/v.Z*c.focal)
}

// primitive is one depth-sorted item: a filled triangle or a thick line.
type primitive struct {
	depth float64
	pts   [][2]float32
	fill  color.NRGBA
}

// Render draws the frame into a new image.
func (r *Renderer) Render(f attitude.Frame) *image.RGBA {
	img := image.NewRGBA(r.Bounds())
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	cam := newCamera(f, r.width, r.height)
	for _, s := range f.Ground {
		if p, ok := r.line(cam, s); ok {
			r.fill(img, p)
		}
	}

	var prims []primitive
	for _, m := range f.Meshes {
		for _, tri := range m.Triangles {
			if p, ok := r.triangle(cam, f.Eye, tri, m.Color); ok {
				prims = append(prims, p)
			}
		}
	}
	for _, s := range f.Details {
		if p, ok := r.line(cam, s); ok {
			prims = append(prims, p)
		}
	}
	for _, s := range f.Axes {
		if p, ok := r.line(cam, s); ok {
			prims = append(prims, p)
		}
	}
	sort.SliceStable(prims, func(i, j int) bool { return prims[i].depth > prims[j].depth })
	for _, p := range prims {
		r.fill(img, p)
	}

	if r.HUD {
		drawHUD(img, r.face, f.State)
	}
	return img
}

func (r *Renderer) triangle(cam camera, eye r3.Vec, tri attitude.Triangle, c attitude.Color) (primitive, bool) {
	n := r3.Cross(r3.Sub(tri.P[1], tri.P[0]), r3.Sub(tri.P[2], tri.P[0]))
	center := r3.Scale(1.0/3, r3.Add(r3.Add(tri.P[0], tri.P[1]), tri.P[2]))
	if r3.Dot(n, r3.Sub(eye, center)) <= 0 {
		return primitive{}, false
	}

	var pts [][2]float32
	depth := 0.0
	for k := 0; k < 3; k++ {
		v := cam.view(tri.P[k])
		if v.Z < nearPlane {
			return primitive{}, false
		}
		x, y := cam.project(v)
		pts = append(pts, [2]float32{x, y})
		depth += v.Z / 3
	}

	normal := r3.Unit(r3.Add(r3.Add(tri.N[0], tri.N[1]), tri.N[2]))
	light := r3.Unit(r3.Sub(lightPos, center))
	return primitive{depth: depth, pts: pts, fill: shade(c, Lambert(normal, light))}, true
}

// line turns a segment into a screen-space quad, clipped at the near plane.
func (r *Renderer) line(cam camera, s attitude.Segment) (primitive, bool) {
	a, b := cam.view(s.A), cam.view(s.B)
	if a.Z < nearPlane && b.Z < nearPlane {
		return primitive{}, false
	}
	if a.Z < nearPlane {
		a = r3.Add(b, r3.Scale((b.Z-nearPlane)/(b.Z-a.Z), r3.Sub(a, b)))
	} else if b.Z < nearPlane {
		b = r3.Add(a, r3.Scale((a.Z-nearPlane)/(a.Z-b.Z), r3.Sub(b, a)))
	}
	ax, ay := cam.project(a)
	bx, by := cam.project(b)

	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return primitive{}, false
	}
	w := float32(math.Max(s.Width, 1)) / 2
	nx, ny := -dy/length*w, dx/length*w
	return primitive{
		depth: (a.Z + b.Z) / 2,
		pts: [][2]float32{
			{ax + nx, ay + ny}, {bx + nx, by + ny},
			{bx - nx, by - ny}, {ax - nx, ay - ny},
		},
		fill: shade(s.Color, 1),
	}, true
}

// fill rasterizes a polygon within its clipped bounding box.
func (r *Renderer) fill(dst *image.RGBA, p primitive) {
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, pt := range p.pts {
		minX, maxX = min(minX, pt[0]), max(maxX, pt[0])
		minY, maxY = min(minY, pt[1]), max(maxY, pt[1])
	}
	box := image.Rect(
		int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY))),
	).Intersect(dst.Bounds())
	if box.Empty() {
		return
	}

	ox, oy := float32(box.Min.X), float32(box.Min.Y)
	r.z.Reset(box.Dx(), box.Dy())
	r.z.DrawOp = draw.Over
	r.z.MoveTo(p.pts[0][0]-ox, p.pts[0][1]-oy)
	for _, pt := range p.pts[1:] {
		r.z.LineTo(pt[0]-ox, pt[1]-oy)
	}
	r.z.ClosePath()
	r.z.Draw(dst, box, image.NewUniform(p.fill), image.Point{})
}

// Lambert returns the ambient plus diffuse intensity for a surface normal
// and a unit vector toward the light, capped at 1.
func Lambert(normal, toLight r3.Vec) float64 {
	return math.Min(1, ambient+diffuse*math.Max(0, r3.Dot(normal, toLight)))
}

func shade(c attitude.Color, k float64) color.NRGBA {
	r, g, b := colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(255 * math.Max(0, math.Min(1, c.A))))}
}

// HUDLines returns the text overlay for a state.
func HUDLines(s attitude.State) []string {
	return []string{
		fmt.Sprintf("Roll:  %7.1f deg", s.Roll),
		fmt.Sprintf("Pitch: %7.1f deg", s.Pitch),
		fmt.Sprintf("Yaw:   %7.1f deg", s.Yaw),
		fmt.Sprintf("Alt:   %7.1f m", s.Altitude),
	}
}

func drawHUD(dst draw.Image, face font.Face, s attitude.State) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(hudColor),
		Face: face,
	}
	for i, line := range HUDLines(s) {
		drawer.Dot = fixed.P(10, 20+15*i)
		drawer.DrawString(line)
	}
}
