// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"sort"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	bugst "go.bug.st/serial"
)

const (
	DefaultBaudRate = 115200
	// DefaultSettleDelay covers the reset an Arduino-class board performs
	// when its port is opened.
	DefaultSettleDelay = 2 * time.Second
)

// PortOptions describes the serial connection to the vehicle's radio.
type PortOptions struct {
	Port     string `json:"port" yaml:"port"`
	BaudRate int    `json:"baud_rate" yaml:"baud_rate"`
	DataBits int    `json:"data_bits" yaml:"data_bits"`
	StopBits int    `json:"stop_bits" yaml:"stop_bits"`
	Parity   string `json:"parity" yaml:"parity"`
	// SettleDelay is waited after opening before the first read. Negative
	// disables it; zero means the default.
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	opts.Port = strings.TrimSpace(opts.Port)
	if opts.Port == "" {
		return opts, fmt.Errorf("serial port name is required")
	}

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	return opts, nil
}

// openOptions converts normalized options for the serial driver.
func (o PortOptions) openOptions() serial.OpenOptions {
	parity := serial.PARITY_NONE
	switch o.Parity {
	case "E":
		parity = serial.PARITY_EVEN
	case "O":
		parity = serial.PARITY_ODD
	}
	return serial.OpenOptions{
		PortName:              o.Port,
		BaudRate:              uint(o.BaudRate),
		DataBits:              uint(o.DataBits),
		StopBits:              uint(o.StopBits),
		MinimumReadSize:       1,
		ParityMode:            parity,
		InterCharacterTimeout: 0,
	}
}

// ListPorts returns the serial ports present on this machine, sorted.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
