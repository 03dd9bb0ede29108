// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package web

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/rocket_groundstation/internal/series"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// lineData converts one series field for echarts.
func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

func timeLabels(times []float64) []string {
	labels := make([]string, len(times))
	for i, t := range times {
		labels[i] = strconv.FormatFloat(t, 'f', 2, 64)
	}
	return labels
}

func newLineChart(title, yName string, ser series.Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d samples", ser.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	line.SetXAxis(timeLabels(ser.Time))
	return line
}

// renderCharts writes an HTML page with the attitude, altitude and
// velocity plots of ser.
func renderCharts(ser series.Series) ([]byte, error) {
	att := newLineChart("Attitude", "deg", ser)
	att.AddSeries("roll", lineData(ser.Roll)).
		AddSeries("pitch", lineData(ser.Pitch)).
		AddSeries("yaw", lineData(ser.Yaw))

	alt := newLineChart("Altitude", "m", ser)
	alt.AddSeries("altitude", lineData(ser.Altitude))

	vel := newLineChart("Velocity", "m/s", ser)
	vel.AddSeries("velocity", lineData(ser.Velocity))

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.SetPageTitle("Rocket telemetry")
	page.AddCharts(att, alt, vel)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	ser, err := s.st.Series(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	page, err := renderCharts(ser)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render charts: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

var plotColors = map[string]color.Color{
	"roll":     color.RGBA{R: 220, A: 255},
	"pitch":    color.RGBA{G: 160, A: 255},
	"yaw":      color.RGBA{B: 220, A: 255},
	"altitude": color.RGBA{R: 200, G: 120, A: 255},
	"velocity": color.RGBA{R: 120, B: 160, A: 255},
}

// plotField picks one series field by name.
func plotField(ser series.Series, field string) ([]float64, bool) {
	switch field {
	case "roll":
		return ser.Roll, true
	case "pitch":
		return ser.Pitch, true
	case "yaw":
		return ser.Yaw, true
	case "altitude":
		return ser.Altitude, true
	case "velocity":
		return ser.Velocity, true
	}
	return nil, false
}

// plotWindow draws the selected fields against elapsed time as a PNG.
func plotWindow(ser series.Series, fields []string, width, height vg.Length) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Telemetry window"
	p.X.Label.Text = "t (s)"
	p.Add(plotter.NewGrid())

	for _, field := range fields {
		values, ok := plotField(ser, field)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", field)
		}
		pts := make(plotter.XYs, len(values))
		for i, v := range values {
			pts[i] = plotter.XY{X: ser.Time[i], Y: v}
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", field, err)
		}
		line.Width = vg.Points(1)
		line.Color = plotColors[field]
		p.Add(line)
		p.Legend.Add(field, line)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleWindowPlot(w http.ResponseWriter, r *http.Request) {
	fields := r.URL.Query()["field"]
	if len(fields) == 0 {
		fields = []string{"roll", "pitch", "yaw"}
	}
	ser, err := s.st.Series(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	img, err := plotWindow(ser, fields, 10*vg.Inch, 4*vg.Inch)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(img); err != nil {
		log.Printf("web: write plot: %v", err)
	}
}
