// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/relabs-tech/rocket_groundstation/internal/datalog"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

// RunPorts lists the serial ports a vehicle link could use.
func RunPorts(w io.Writer, list func() ([]string, error)) error {
	if list == nil {
		list = transport.ListPorts
	}
	ports, err := list()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

// RunLogSummary prints the metadata and statistics of a finished session
// document.
func RunLogSummary(w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	doc, err := datalog.ReadDocument(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "file:        %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	fmt.Fprintf(w, "start:       %s\n", doc.Metadata.StartTime.Or("-"))
	fmt.Fprintf(w, "end:         %s\n", doc.Metadata.EndTime.Or("-"))

	st, ok := datalog.Summarize(doc.Data)
	if !ok {
		fmt.Fprintln(w, "samples:     0")
		return nil
	}
	fmt.Fprintf(w, "samples:     %s\n", humanize.Comma(int64(st.Samples)))
	fmt.Fprintf(w, "duration:    %.2f s\n", st.Duration)
	fmt.Fprintf(w, "max alt:     %.1f m\n", st.MaxAltitude)
	fmt.Fprintf(w, "max roll:    %.1f deg\n", st.MaxRoll)
	fmt.Fprintf(w, "max pitch:   %.1f deg\n", st.MaxPitch)
	return nil
}
