// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

// FormatMessage renders one decoded message as a console line.
func FormatMessage(msg telemetry.Message) string {
	switch m := msg.(type) {
	case telemetry.Sample:
		return fmt.Sprintf(
			"[TLM ] t=%7.2f  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  ALT=%8.1f  VEL=%6.1f  bno=%s adxl=%s/%s bmp=%s",
			m.Time, m.Roll, m.Pitch, m.Yaw, m.Altitude, m.Velocity.Or(0),
			m.BNOStatus.Or(telemetry.UnknownStatus),
			m.ADXL1Status.Or(telemetry.UnknownStatus),
			m.ADXL2Status.Or(telemetry.UnknownStatus),
			m.BMPStatus.Or(telemetry.UnknownStatus),
		)
	case telemetry.Status:
		return fmt.Sprintf("[STAT] t=%7.2f  %s", m.Time, m.Text)
	case telemetry.Error:
		return fmt.Sprintf("[ERR ] t=%7.2f  %s", m.Time, m.Text)
	}
	return ""
}

// consoleSim prints decoded lines from src every interval until ctx is done.
func consoleSim(ctx context.Context, w io.Writer, src transport.LineSource, dec *telemetry.Decoder, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for {
			line, ok := src.TryReadLine()
			if !ok {
				break
			}
			if msg, ok := dec.Decode(line); ok {
				fmt.Fprintln(w, FormatMessage(msg))
			}
		}
		if err := src.Err(); err != nil {
			return err
		}
	}
}

// RunConsole prints the simulated vehicle's telemetry, decoded, until
// SIGINT or SIGTERM.
func RunConsole(period time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}
	src := transport.NewSimSource(clock, period)
	defer src.Close()

	return consoleSim(ctx, os.Stdout, src, telemetry.NewDecoder(clock.Now(), clock), 100*time.Millisecond)
}
