// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

// Transport kinds.
const (
	TransportSerial = "serial"
	TransportMQTT   = "mqtt"
	TransportSim    = "sim"
)

// Elapsed-time modes across reconnects.
const (
	// ElapsedRestart starts elapsed time from zero at every connect.
	ElapsedRestart = "restart"
	// ElapsedContinue keeps counting from the first connect of the run.
	ElapsedContinue = "continue"
)

// Config holds all application configuration values.
type Config struct {
	Transport string                `yaml:"transport"`
	Serial    transport.PortOptions `yaml:"serial"`

	// PollInterval is the station loop tick.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ReconnectDelay is waited before reopening a failed link. Negative
	// disables reconnecting.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`

	Session SessionConfig `yaml:"session"`
	Window  WindowConfig  `yaml:"window"`
	Log     LogConfig     `yaml:"log"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Sim     SimConfig     `yaml:"sim"`
	Web     WebConfig     `yaml:"web"`
	Panel   PanelConfig   `yaml:"panel"`
}

type SessionConfig struct {
	ElapsedMode string `yaml:"elapsed_mode"`
	// ConnectOnStart opens the link when the station starts instead of
	// waiting for a connect request.
	ConnectOnStart bool `yaml:"connect_on_start"`
}

type WindowConfig struct {
	Capacity int `yaml:"capacity"`
}

type LogConfig struct {
	Dir        string `yaml:"dir"`
	Autostart  bool   `yaml:"autostart"`
	FlushEvery int    `yaml:"flush_every"`
}

type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	TelemetryTopic string `yaml:"telemetry_topic"`
	CommandTopic   string `yaml:"command_topic"`
	RelayTopic     string `yaml:"relay_topic"`
	// Relay republishes decoded messages to RelayTopic.
	Relay bool `yaml:"relay"`
}

// Source returns the options for an MQTT telemetry link.
func (m MQTTConfig) Source() transport.MQTTOptions {
	return transport.MQTTOptions{
		Broker:         m.Broker,
		ClientID:       m.ClientID,
		TelemetryTopic: m.TelemetryTopic,
		CommandTopic:   m.CommandTopic,
	}
}

type SimConfig struct {
	Period time.Duration `yaml:"period"`
}

type WebConfig struct {
	Listen       string `yaml:"listen"`
	RenderWidth  int    `yaml:"render_width"`
	RenderHeight int    `yaml:"render_height"`
}

type PanelConfig struct {
	Enable  bool   `yaml:"enable"`
	I2CBus  string `yaml:"i2c_bus"`
	Address uint16 `yaml:"address"`
	// UpdateInterval is the OLED refresh period.
	UpdateInterval time.Duration `yaml:"update_interval"`
}

// Global configuration instance, protected by mutex for thread-safe access.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML configuration file, fills in defaults and validates it.
func Load(configPath string) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transport == "" {
		c.Transport = TransportSerial
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.Session.ElapsedMode == "" {
		c.Session.ElapsedMode = ElapsedRestart
	}
	if c.Window.Capacity <= 0 {
		c.Window.Capacity = 500
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.FlushEvery <= 0 {
		c.Log.FlushEvery = 100
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.TelemetryTopic == "" {
		c.MQTT.TelemetryTopic = transport.DefaultTelemetryTopic
	}
	if c.MQTT.CommandTopic == "" {
		c.MQTT.CommandTopic = transport.DefaultCommandTopic
	}
	if c.MQTT.RelayTopic == "" {
		c.MQTT.RelayTopic = "rocket/decoded"
	}
	if c.Sim.Period <= 0 {
		c.Sim.Period = transport.DefaultSimPeriod
	}
	if c.Web.Listen == "" {
		c.Web.Listen = ":8080"
	}
	if c.Web.RenderWidth <= 0 {
		c.Web.RenderWidth = 640
	}
	if c.Web.RenderHeight <= 0 {
		c.Web.RenderHeight = 480
	}
	if c.Panel.Address == 0 {
		c.Panel.Address = 0x3C
	}
	if c.Panel.UpdateInterval <= 0 {
		c.Panel.UpdateInterval = 500 * time.Millisecond
	}
}

// validate checks values that have no sensible default.
func (c *Config) validate() error {
	switch c.Transport {
	case TransportSerial, TransportMQTT, TransportSim:
	default:
		return fmt.Errorf("transport must be one of serial, mqtt, sim; got %q", c.Transport)
	}
	switch c.Session.ElapsedMode {
	case ElapsedRestart, ElapsedContinue:
	default:
		return fmt.Errorf("session.elapsed_mode must be restart or continue; got %q", c.Session.ElapsedMode)
	}
	if c.Transport == TransportSerial && c.Serial.Port != "" {
		if _, err := c.Serial.Normalize(); err != nil {
			return fmt.Errorf("serial: %w", err)
		}
	}
	if c.Transport == TransportSerial && c.Session.ConnectOnStart && c.Serial.Port == "" {
		return fmt.Errorf("serial.port is required with session.connect_on_start")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. An empty path
// selects Default().
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Default()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
