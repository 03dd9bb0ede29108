// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/rocket_groundstation/internal/config"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

// publisher is the part of mqtt.Client the producer needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// produce forwards every line of src to topic and feeds commands into src,
// until ctx is done. src is only touched by this goroutine.
func produce(ctx context.Context, src transport.LineSource, pub publisher, topic string, commands <-chan string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-commands:
			log.Printf("producer: command %q", cmd)
			if err := src.WriteLine(cmd); err != nil {
				return err
			}
		case <-ticker.C:
			for {
				line, ok := src.TryReadLine()
				if !ok {
					break
				}
				pub.Publish(topic, 0, false, line)
			}
			if err := src.Err(); err != nil {
				return err
			}
		}
	}
}

// RunSimProducer plays the simulated vehicle over MQTT: telemetry lines go
// to the telemetry topic and lines on the command topic are acknowledged.
// It lets the station run with transport: mqtt on a bench.
func RunSimProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID("groundstation-sim-" + uuid.NewString())

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTT.Broker)

	commands := make(chan string, 16)
	token := client.Subscribe(cfg.MQTT.CommandTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case commands <- string(msg.Payload()):
		default:
			log.Printf("producer: command dropped")
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := transport.NewSimSource(timeutil.RealClock{}, cfg.Sim.Period)
	defer src.Close()
	log.Printf("producer: publishing to %s every %v", cfg.MQTT.TelemetryTopic, cfg.Sim.Period)
	return produce(ctx, src, client, cfg.MQTT.TelemetryTopic, commands, cfg.Sim.Period)
}
