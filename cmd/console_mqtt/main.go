// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/rocket_groundstation/internal/app"
	"github.com/relabs-tech/rocket_groundstation/internal/config"
)

func main() {
	configPath := flag.String("config", "groundstation.yaml", "path to the YAML configuration file, empty for defaults")
	flag.Parse()

	log.Println("starting rocket ground station console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
