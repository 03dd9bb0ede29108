// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/rocket_groundstation/internal/config"
	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

// decodeRelayed parses a payload published by the relay on topic.
func decodeRelayed(base, topic string, payload []byte) (telemetry.Message, error) {
	switch topic {
	case base + "/status":
		var m telemetry.Status
		err := json.Unmarshal(payload, &m)
		return m, err
	case base + "/error":
		var m telemetry.Error
		err := json.Unmarshal(payload, &m)
		return m, err
	default:
		var m telemetry.Sample
		err := json.Unmarshal(payload, &m)
		return m, err
	}
}

// RunConsoleMQTT prints what a running ground station relays to the broker.
func RunConsoleMQTT() error {
	cfg := config.Get()
	base := cfg.MQTT.RelayTopic

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID("groundstation-console-" + uuid.NewString())

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTT.Broker)

	for _, topic := range []string{base, base + "/status", base + "/error"} {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			m, err := decodeRelayed(base, msg.Topic(), msg.Payload())
			if err != nil {
				log.Printf("console: %s unmarshal error: %v", msg.Topic(), err)
				return
			}
			fmt.Println(FormatMessage(m))
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
