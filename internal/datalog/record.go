// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

// TimestampLayout is the wall-clock format of the "timestamp" column.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Header is the fixed column order of the CSV row sink.
var Header = []string{
	"timestamp",
	"time_seconds",
	"roll",
	"pitch",
	"yaw",
	"altitude",
	"velocity",
	"bno_status",
	"adxl1_status",
	"adxl2_status",
	"bmp_status",
	"bno_ax",
	"bno_ay",
	"bno_az",
}

// Record is a logged sample plus the wall-clock time it was logged at.
type Record struct {
	Timestamp string `json:"timestamp"`
	telemetry.Sample
}

// Row renders r in Header order. This is the only place absent optional
// fields are defaulted: numbers to 0, statuses to "UNKNOWN".
func (r Record) Row() []string {
	s := r.Sample
	return []string{
		r.Timestamp,
		formatFloat(s.Time),
		formatFloat(s.Roll),
		formatFloat(s.Pitch),
		formatFloat(s.Yaw),
		formatFloat(s.Altitude),
		formatFloat(s.Velocity.Or(0)),
		s.BNOStatus.Or(telemetry.UnknownStatus),
		s.ADXL1Status.Or(telemetry.UnknownStatus),
		s.ADXL2Status.Or(telemetry.UnknownStatus),
		s.BMPStatus.Or(telemetry.UnknownStatus),
		formatFloat(s.BNOAx.Or(0)),
		formatFloat(s.BNOAy.Or(0)),
		formatFloat(s.BNOAz.Or(0)),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Metadata is the envelope written ahead of the sample list.
type Metadata struct {
	StartTime    telemetry.Optional[string] `json:"start_time"`
	EndTime      telemetry.Optional[string] `json:"end_time"`
	TotalSamples int                        `json:"total_samples"`
}

// Document is the whole-session JSON sink.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Data     []Record `json:"data"`
}

func newDocument(records []Record) Document {
	doc := Document{
		Metadata: Metadata{TotalSamples: len(records)},
		Data:     records,
	}
	if doc.Data == nil {
		doc.Data = []Record{}
	}
	if n := len(records); n > 0 {
		doc.Metadata.StartTime = telemetry.Some(records[0].Timestamp)
		doc.Metadata.EndTime = telemetry.Some(records[n-1].Timestamp)
	}
	return doc
}

// ReadDocument loads a document sink written by Logger.Stop.
func ReadDocument(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Stats are aggregates over a session's samples.
type Stats struct {
	Samples     int     `json:"samples"`
	Duration    float64 `json:"duration"` // seconds of elapsed session time
	MaxAltitude float64 `json:"max_altitude"`
	MaxRoll     float64 `json:"max_roll"`
	MaxPitch    float64 `json:"max_pitch"`
}

// Summarize computes Stats over records. It returns false when records is empty.
func Summarize(records []Record) (Stats, bool) {
	if len(records) == 0 {
		return Stats{}, false
	}
	first := records[0].Sample
	st := Stats{
		Samples:     len(records),
		MaxAltitude: first.Altitude,
		MaxRoll:     first.Roll,
		MaxPitch:    first.Pitch,
	}
	if len(records) > 1 {
		st.Duration = records[len(records)-1].Time - first.Time
	}
	for _, r := range records[1:] {
		st.MaxAltitude = max(st.MaxAltitude, r.Altitude)
		st.MaxRoll = max(st.MaxRoll, r.Roll)
		st.MaxPitch = max(st.MaxPitch, r.Pitch)
	}
	return st, true
}
