// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/rocket_groundstation/internal/app"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

func main() {
	period := flag.Duration("period", transport.DefaultSimPeriod, "interval between simulated samples")
	flag.Parse()

	log.Println("starting rocket ground station (simulator console)")

	if err := app.RunConsole(*period); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
