// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry decodes the vehicle's newline-delimited JSON stream.
package telemetry

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
)

var telemetryKeys = [...]string{"roll", "pitch", "yaw", "altitude"}

// Decoder turns raw transport lines into Messages stamped with the
// elapsed time since the session start it was built with.
type Decoder struct {
	start time.Time
	clock timeutil.Clock
}

// NewDecoder returns a decoder whose elapsed time is measured from start.
// A nil clock uses wall-clock time.
func NewDecoder(start time.Time, clock timeutil.Clock) *Decoder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Decoder{start: start, clock: clock}
}

// Start returns the session start the decoder measures from.
func (d *Decoder) Start() time.Time {
	return d.start
}

// Decode classifies one line. It returns false for anything that is not a
// complete, recognizable record; such lines are simply dropped.
func (d *Decoder) Decode(line string) (Message, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return nil, false
	}
	elapsed := d.elapsed()

	if hasAll(fields, telemetryKeys[:]) {
		if anyNull(fields, telemetryKeys[:]) {
			return nil, false
		}
		var s Sample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return nil, false
		}
		s.Time = elapsed
		return s, true
	}
	if raw, ok := fields["status"]; ok {
		return Status{Time: elapsed, Text: text(raw)}, true
	}
	if raw, ok := fields["error"]; ok {
		return Error{Time: elapsed, Text: text(raw)}, true
	}
	return nil, false
}

func (d *Decoder) elapsed() float64 {
	e := d.clock.Since(d.start).Seconds()
	if e < 0 {
		return 0
	}
	return e
}

func hasAll(fields map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

// anyNull reports whether one of keys holds a JSON null, which Unmarshal
// would otherwise leave as the zero value.
func anyNull(fields map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(string(fields[k])) == "null" {
			return true
		}
	}
	return false
}

// text renders a JSON value as plain text: strings are unquoted, anything
// else is kept verbatim.
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
