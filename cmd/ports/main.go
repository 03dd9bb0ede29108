// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/relabs-tech/rocket_groundstation/internal/app"
)

func main() {
	if err := app.RunPorts(os.Stdout, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
