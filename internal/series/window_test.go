// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package series

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

func sampleAt(i int) telemetry.Sample {
	f := float64(i)
	return telemetry.Sample{
		Time:     f * 0.05,
		Roll:     f,
		Pitch:    -f,
		Yaw:      f * 2,
		Altitude: f * 10,
		Velocity: telemetry.Some(f / 2),
	}
}

func TestWindow_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewWindow(0).Cap())
	assert.Equal(t, 500, DefaultCapacity)
}

func TestWindow_EvictsOldestFirst(t *testing.T) {
	for _, capacity := range []int{1, 2, 7, 50} {
		for _, pushes := range []int{0, 1, capacity - 1, capacity, capacity + 1, 3*capacity + 2} {
			w := NewWindow(capacity)
			for i := 0; i < pushes; i++ {
				pos := w.Push(sampleAt(i))
				assert.Equal(t, uint64(i), pos)
				require.LessOrEqual(t, w.Len(), capacity)
			}

			want := min(pushes, capacity)
			require.Equal(t, want, w.Len(), "cap=%d pushes=%d", capacity, pushes)
			if pushes == 0 {
				continue
			}

			samples := w.Samples()
			first := pushes - want
			assert.Equal(t, sampleAt(first), samples[0], "cap=%d pushes=%d", capacity, pushes)
			assert.Equal(t, uint64(first), w.FirstPosition())

			latest, ok := w.Latest()
			require.True(t, ok)
			assert.Equal(t, sampleAt(pushes-1), latest)
		}
	}
}

func TestWindow_SeriesIsIndexAligned(t *testing.T) {
	w := NewWindow(5)
	for i := 0; i < 12; i++ {
		w.Push(sampleAt(i))
	}

	s := w.Series()
	require.Equal(t, 5, s.Len())
	for _, field := range [][]float64{s.Roll, s.Pitch, s.Yaw, s.Altitude, s.Velocity} {
		assert.Len(t, field, s.Len())
	}
	for i := range s.Len() {
		src := sampleAt(7 + i)
		assert.Equal(t, src.Time, s.Time[i])
		assert.Equal(t, src.Roll, s.Roll[i])
		assert.Equal(t, src.Pitch, s.Pitch[i])
		assert.Equal(t, src.Yaw, s.Yaw[i])
		assert.Equal(t, src.Altitude, s.Altitude[i])
		assert.Equal(t, src.Velocity.Or(0), s.Velocity[i])
	}

	if diff := cmp.Diff([]float64{7, 8, 9, 10, 11}, s.Roll); diff != "" {
		t.Errorf("roll series mismatch (-want +got):\n%s", diff)
	}
}

func TestWindow_ClearEmptiesEveryField(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 6; i++ {
		w.Push(sampleAt(i))
	}
	w.Clear()

	assert.Equal(t, 0, w.Len())
	assert.Empty(t, w.Samples())
	s := w.Series()
	for _, field := range [][]float64{s.Time, s.Roll, s.Pitch, s.Yaw, s.Altitude, s.Velocity} {
		assert.Empty(t, field)
	}
	_, ok := w.Latest()
	assert.False(t, ok)

	// Logical positions keep increasing across Clear.
	assert.Equal(t, uint64(6), w.FirstPosition())
	assert.Equal(t, uint64(6), w.Push(sampleAt(6)))
	assert.Equal(t, []telemetry.Sample{sampleAt(6)}, w.Samples())
}

func TestWindow_MissingVelocityPlotsAsZero(t *testing.T) {
	w := NewWindow(2)
	w.Push(telemetry.Sample{Roll: 1})
	assert.Equal(t, []float64{0}, w.Series().Velocity)
}
