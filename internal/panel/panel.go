// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package panel shows the station state on a 128x64 SSD1306 OLED.
package panel

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rocket_groundstation/internal/config"
	"github.com/relabs-tech/rocket_groundstation/internal/station"
)

const (
	Width  = 128
	Height = 64

	lineHeight = 13
)

// Page selects what the panel shows.
type Page int

const (
	PageFlight Page = iota
	PageSensors
	PageLink
	pageCount
)

// pageHold is how many updates a page stays up before the next one.
const pageHold = 6

// Display is an OLED device; *ssd1306.Dev satisfies it.
type Display interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Source provides the state to show.
type Source interface {
	Snapshot(ctx context.Context) (station.Snapshot, error)
}

func newImage() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLines(d *font.Drawer, lines []string) {
	for i, line := range lines {
		d.Dot = fixed.P(0, (i+1)*lineHeight)
		d.DrawString(line)
	}
}

// Lines returns the text rows of page for snap.
func Lines(snap station.Snapshot, page Page) []string {
	switch page {
	case PageSensors:
		return []string{
			"Sensors",
			"BNO:  " + snap.Sensors["bno"],
			"ADXL: " + snap.Sensors["adxl1"] + "/" + snap.Sensors["adxl2"],
			"BMP:  " + snap.Sensors["bmp"],
		}
	case PageLink:
		link := "offline"
		if snap.Connected {
			link = snap.Link
		}
		return []string{
			"Link " + link,
			fmt.Sprintf("Rx %d", snap.Counters.Samples),
			"Log " + snap.Logging.State,
			fmt.Sprintf("Win %d/%d", snap.Window.Len, snap.Window.Cap),
		}
	}

	latest, ok := snap.Latest.Get()
	if !ok {
		return []string{"Rocket GS", "Waiting..."}
	}
	return []string{
		fmt.Sprintf("R: %6.1f", latest.Roll),
		fmt.Sprintf("P: %6.1f", latest.Pitch),
		fmt.Sprintf("Y: %6.1f", latest.Yaw),
		fmt.Sprintf("A: %6.0fm", latest.Altitude),
	}
}

// Render draws page of snap into a panel-sized image.
func Render(snap station.Snapshot, page Page) *image1bit.VerticalLSB {
	img, d := newImage()
	drawLines(d, Lines(snap, page))
	return img
}

func splash() *image1bit.VerticalLSB {
	img, d := newImage()
	d.Dot = fixed.P(10, 26)
	d.DrawString("Rocket GS")
	d.Dot = fixed.P(10, 43)
	d.DrawString("Waiting for")
	d.Dot = fixed.P(10, 56)
	d.DrawString("telemetry")
	return img
}

func show(dev Display, img image.Image) error {
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// Run refreshes dev from src every interval until ctx is done. Pages
// rotate every few updates.
func Run(ctx context.Context, src Source, dev Display, interval time.Duration) error {
	if err := show(dev, splash()); err != nil {
		log.Printf("panel: error showing splash: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("panel: starting update loop")
	var n int
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		snap, err := src.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("panel: snapshot: %w", err)
		}
		page := Page(n / pageHold % int(pageCount))
		if err := show(dev, Render(snap, page)); err != nil {
			log.Printf("panel: error updating display: %v", err)
		}
		n++
	}
}

// Open initializes the host drivers and the SSD1306 on the configured bus.
// The returned function releases the bus.
func Open(cfg config.PanelConfig) (*ssd1306.Dev, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, cfg.Address, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("panel: display initialized at 0x%02X", cfg.Address)
	return dev, bus.Close, nil
}
