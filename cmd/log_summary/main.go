// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/rocket_groundstation/internal/app"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s telemetry_<timestamp>.json...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	for i, path := range flag.Args() {
		if i > 0 {
			fmt.Println()
		}
		if err := app.RunLogSummary(os.Stdout, path); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}
}
