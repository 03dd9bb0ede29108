// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	DefaultTelemetryTopic = "rocket/telemetry"
	DefaultCommandTopic   = "rocket/command"

	mqttTimeout = 5 * time.Second
)

// MQTTOptions selects the broker and topics of a radio bridge that
// republishes the vehicle's lines.
type MQTTOptions struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	TelemetryTopic string `yaml:"telemetry_topic"`
	CommandTopic   string `yaml:"command_topic"`
}

func (o MQTTOptions) withDefaults() MQTTOptions {
	if o.ClientID == "" {
		o.ClientID = "groundstation-" + uuid.NewString()
	}
	if o.TelemetryTopic == "" {
		o.TelemetryTopic = DefaultTelemetryTopic
	}
	if o.CommandTopic == "" {
		o.CommandTopic = DefaultCommandTopic
	}
	return o
}

// MQTTSource receives telemetry lines as MQTT messages. A payload may hold
// several newline-separated lines.
type MQTTSource struct {
	opts   MQTTOptions
	client mqtt.Client
	q      *lineQueue
}

// DialMQTT connects to the broker and subscribes to the telemetry topic.
func DialMQTT(opts MQTTOptions) (*MQTTSource, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	s := &MQTTSource{opts: opts.withDefaults(), q: newLineQueue(DefaultQueueSize)}

	co := mqtt.NewClientOptions().
		AddBroker(s.opts.Broker).
		SetClientID(s.opts.ClientID).
		SetAutoReconnect(false).
		SetConnectTimeout(mqttTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.q.fail(fmt.Errorf("mqtt connection lost: %w", err))
		})

	s.client = mqtt.NewClient(co)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.opts.Broker, token.Error())
	}
	log.Printf("transport: connected to MQTT broker at %s", s.opts.Broker)

	token := s.client.Subscribe(s.opts.TelemetryTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s.deliver(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		s.client.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: %w", s.opts.TelemetryTopic, token.Error())
	}
	log.Printf("transport: subscribed to %s", s.opts.TelemetryTopic)
	return s, nil
}

func (s *MQTTSource) deliver(payload []byte) {
	s.q.pushText(string(payload))
}

func (s *MQTTSource) TryReadLine() (string, bool) { return s.q.TryReadLine() }

func (s *MQTTSource) Err() error { return s.q.Err() }

// WriteLine publishes line on the command topic.
func (s *MQTTSource) WriteLine(line string) error {
	if s.q.Err() != nil {
		return ErrClosed
	}
	token := s.client.Publish(s.opts.CommandTopic, 0, false, terminate(line))
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("publish %s: timed out", s.opts.CommandTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", s.opts.CommandTopic, err)
	}
	return nil
}

func (s *MQTTSource) Close() error {
	s.q.fail(ErrClosed)
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	return nil
}

var _ LineSource = (*MQTTSource)(nil)
