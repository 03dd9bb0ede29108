// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/relabs-tech/rocket_groundstation/internal/attitude/raster"
	"github.com/relabs-tech/rocket_groundstation/internal/config"
	"github.com/relabs-tech/rocket_groundstation/internal/panel"
	"github.com/relabs-tech/rocket_groundstation/internal/relay"
	"github.com/relabs-tech/rocket_groundstation/internal/station"
	"github.com/relabs-tech/rocket_groundstation/internal/web"
)

// RunGroundstation runs the station loop with the web shell, the optional
// MQTT relay and the optional OLED panel until SIGINT or SIGTERM.
func RunGroundstation() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	surface := raster.NewSurface(cfg.Web.RenderWidth, cfg.Web.RenderHeight)
	hub := web.NewHub()
	opts := []station.Option{
		station.WithSurface(surface),
		station.WithSink(hub),
	}

	if cfg.MQTT.Relay {
		pub, err := relay.Dial(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.RelayTopic)
		if err != nil {
			return err
		}
		defer func() {
			sent, skipped := pub.Counts()
			log.Printf("relay: %d published, %d skipped", sent, skipped)
			pub.Close()
		}()
		opts = append(opts, station.WithSink(pub))
	}

	st := station.NewStation(cfg, opts...)
	srv := web.NewServer(cfg.Web.Listen, st, hub, web.WithFrames(surface))

	// Any component failing brings the whole station down.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}
	goRun := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("%s: %v", name, err)
				fail(err)
			}
		}()
	}

	goRun("station", st.Run)
	goRun("web", srv.Start)

	if cfg.Panel.Enable {
		dev, closeBus, err := panel.Open(cfg.Panel)
		if err != nil {
			log.Printf("panel: disabled: %v", err)
		} else {
			defer closeBus()
			goRun("panel", func(ctx context.Context) error {
				return panel.Run(ctx, st, dev, cfg.Panel.UpdateInterval)
			})
		}
	}

	log.Printf("groundstation: transport=%s web=%s", cfg.Transport, cfg.Web.Listen)
	<-ctx.Done()
	log.Println("groundstation: shutting down")
	wg.Wait()
	return firstErr
}
