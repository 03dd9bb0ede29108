// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package raster

import (
	"bytes"
	"fmt"
	"image/png"
	"sync"

	"github.com/relabs-tech/rocket_groundstation/internal/attitude"
)

// Surface renders frames and keeps the latest picture as PNG bytes for
// readers on other goroutines.
type Surface struct {
	r *Renderer

	mu     sync.RWMutex
	png    []byte
	frames uint64
}

// NewSurface returns a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{r: New(width, height)}
}

// Draw renders f and replaces the stored picture. Calls must not overlap.
func (s *Surface) Draw(f attitude.Frame) error {
	img := s.r.Render(f)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	s.mu.Lock()
	s.png = buf.Bytes()
	s.frames++
	s.mu.Unlock()
	return nil
}

// PNG returns the latest picture, or nil before the first Draw. The slice
// is never modified after it is returned.
func (s *Surface) PNG() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.png
}

// Frames returns how many frames were drawn.
func (s *Surface) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

var _ attitude.Surface = (*Surface)(nil)
