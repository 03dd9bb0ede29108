// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package relay republishes decoded telemetry to an MQTT broker so other
// tools on the network can follow the flight.
package relay

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

const DefaultTopic = "rocket/decoded"

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends samples to <topic> and status/error messages to
// <topic>/status and <topic>/error. Publish never blocks: while an earlier
// sample publish is still in flight, newer samples are skipped. Status and
// error messages are always handed to the client.
type Publisher struct {
	client   client
	topic    string
	inFlight mqtt.Token
	skipped  uint64
	sent     uint64
}

// Dial connects to broker. An empty clientID gets a random one.
func Dial(broker, clientID, topic string) (*Publisher, error) {
	if clientID == "" {
		clientID = "groundstation-relay-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("relay: connect to %s: %w", broker, token.Error())
	}
	log.Printf("relay: connected to MQTT broker at %s", broker)
	return newPublisher(c, topic), nil
}

func newPublisher(c client, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{client: c, topic: topic}
}

// Publish sends one message. It is called from the station loop only.
func (p *Publisher) Publish(msg telemetry.Message) {
	topic := p.topic
	sample := false
	switch msg.(type) {
	case telemetry.Status:
		topic += "/status"
	case telemetry.Error:
		topic += "/error"
	default:
		sample = true
		if p.inFlight != nil {
			select {
			case <-p.inFlight.Done():
				if err := p.inFlight.Error(); err != nil {
					log.Printf("relay: publish to %s failed: %v", topic, err)
				}
			default:
				p.skipped++
				return
			}
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay: marshal error: %v", err)
		return
	}
	token := p.client.Publish(topic, 0, false, payload)
	if sample {
		p.inFlight = token
	}
	p.sent++
}

// Counts reports messages handed to the client and messages skipped.
func (p *Publisher) Counts() (sent, skipped uint64) {
	return p.sent, p.skipped
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
