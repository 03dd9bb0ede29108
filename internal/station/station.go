// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package station runs the ground-station event loop: it polls the vehicle
// link, decodes lines and feeds the rolling window, the session logger and
// the attitude view.
package station

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/rocket_groundstation/internal/attitude"
	"github.com/relabs-tech/rocket_groundstation/internal/config"
	"github.com/relabs-tech/rocket_groundstation/internal/datalog"
	"github.com/relabs-tech/rocket_groundstation/internal/series"
	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
	"github.com/relabs-tech/rocket_groundstation/internal/timeutil"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

var (
	// ErrStopped is returned by requests made after Run has returned.
	ErrStopped = errors.New("station stopped")
	// ErrNotConnected is returned by Command without an open link.
	ErrNotConnected = errors.New("not connected")
)

const statusDisconnected = "DISCONNECTED"

// Sink receives every decoded message on the station loop. Implementations
// must return quickly.
type Sink interface {
	Publish(msg telemetry.Message)
}

// Dialer opens the vehicle link. port may be empty to use the configured one.
type Dialer func(port string) (transport.LineSource, error)

// Station owns the decoder, window, logger and attitude view. All of them
// are touched only by the goroutine running Run; other goroutines go
// through Do or the request methods built on it.
type Station struct {
	cfg     *config.Config
	clock   timeutil.Clock
	dial    Dialer
	surface attitude.Surface
	sinks   []Sink

	requests chan func()
	stopped  chan struct{}

	// Loop-owned state below.
	src           transport.LineSource
	port          string
	wantConnected bool
	reconnectAt   time.Time
	firstStart    time.Time
	status        string

	decoder *telemetry.Decoder
	window  *series.Window
	logger  *datalog.Logger
	view    *attitude.View
	dirty   bool

	latest     telemetry.Optional[telemetry.Sample]
	lastStatus telemetry.Optional[telemetry.Status]
	lastError  telemetry.Optional[telemetry.Error]
	counters   Counters
}

// Counters are running totals since the station started.
type Counters struct {
	Lines    uint64 `json:"lines"`
	Samples  uint64 `json:"samples"`
	Dropped  uint64 `json:"dropped"`
	Redraws  uint64 `json:"redraws"`
	LogFails uint64 `json:"log_failures"`
}

// Option configures a Station.
type Option func(*Station)

// WithClock replaces the wall clock, for tests.
func WithClock(c timeutil.Clock) Option {
	return func(s *Station) { s.clock = c }
}

// WithDialer replaces the transport selected by the configuration.
func WithDialer(d Dialer) Option {
	return func(s *Station) { s.dial = d }
}

// WithSurface sets where attitude frames are drawn.
func WithSurface(surface attitude.Surface) Option {
	return func(s *Station) { s.surface = surface }
}

// WithSink adds a consumer of decoded messages.
func WithSink(sink Sink) Option {
	return func(s *Station) { s.sinks = append(s.sinks, sink) }
}

// NewStation builds an idle, disconnected station.
func NewStation(cfg *config.Config, opts ...Option) *Station {
	s := &Station{
		cfg:      cfg,
		clock:    timeutil.RealClock{},
		requests: make(chan func()),
		stopped:  make(chan struct{}),
		status:   statusDisconnected,
		window:   series.NewWindow(cfg.Window.Capacity),
		view:     attitude.NewView(),
		dirty:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		s.dial = s.configuredDialer
	}
	s.logger = datalog.New(cfg.Log.Dir,
		datalog.WithClock(s.clock),
		datalog.WithFlushEvery(cfg.Log.FlushEvery))
	return s
}

func (s *Station) configuredDialer(port string) (transport.LineSource, error) {
	switch s.cfg.Transport {
	case config.TransportMQTT:
		return transport.DialMQTT(s.cfg.MQTT.Source())
	case config.TransportSim:
		return transport.NewSimSource(s.clock, s.cfg.Sim.Period), nil
	default:
		opts := s.cfg.Serial
		if port != "" {
			opts.Port = port
		}
		return transport.OpenSerial(opts)
	}
}

// Run is the station loop. It polls the link every PollInterval, drains
// every waiting line, redraws at most once per tick and serves requests in
// between. It returns when ctx is done, after closing the link.
func (s *Station) Run(ctx context.Context) error {
	defer close(s.stopped)

	if s.cfg.Session.ConnectOnStart {
		if err := s.connect(""); err != nil {
			log.Printf("station: initial connect failed: %v", err)
		}
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	log.Printf("station: loop running every %v", s.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			s.wantConnected = false
			s.closeLink(statusDisconnected)
			log.Println("station: shutting down")
			return nil
		case fn := <-s.requests:
			fn()
		case <-ticker.C:
			s.tick()
		}
	}
}

// Do runs fn on the station loop and waits for it to finish.
func (s *Station) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case s.requests <- wrapped:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

func (s *Station) tick() {
	if s.src == nil && s.wantConnected && s.cfg.ReconnectDelay >= 0 && !s.clock.Now().Before(s.reconnectAt) {
		if err := s.connect(s.port); err != nil {
			log.Printf("station: reconnect failed: %v", err)
		}
	}

	if s.src != nil {
		for {
			line, ok := s.src.TryReadLine()
			if !ok {
				break
			}
			s.handleLine(line)
		}
		if err := s.src.Err(); err != nil {
			s.linkFailed(err)
		}
	}

	if s.dirty {
		s.redraw()
	}
}

func (s *Station) handleLine(line string) {
	s.counters.Lines++
	msg, ok := s.decoder.Decode(line)
	if !ok {
		s.counters.Dropped++
		return
	}
	switch m := msg.(type) {
	case telemetry.Sample:
		s.pushSample(m)
	case telemetry.Status:
		s.lastStatus = telemetry.Some(m)
	case telemetry.Error:
		log.Printf("station: vehicle error: %s", m.Text)
		s.lastError = telemetry.Some(m)
	}
	for _, sink := range s.sinks {
		sink.Publish(msg)
	}
}

// pushSample feeds the three consumers. A logging failure is reported and
// does not affect the window or the view.
func (s *Station) pushSample(sample telemetry.Sample) {
	s.counters.Samples++
	s.window.Push(sample)
	if err := s.logger.Log(sample); err != nil {
		s.counters.LogFails++
		log.Printf("station: log write failed: %v", err)
	}
	s.view.SetAttitude(sample.Roll, sample.Pitch, sample.Yaw, sample.Altitude)
	s.latest = telemetry.Some(sample)
	s.dirty = true
}

func (s *Station) redraw() {
	s.dirty = false
	if s.surface == nil {
		return
	}
	if err := s.surface.Draw(s.view.Frame()); err != nil {
		log.Printf("station: draw failed: %v", err)
		return
	}
	s.counters.Redraws++
}

// connect opens the link. The session start used for elapsed time is the
// connect instant, or the first connect's in continue mode.
func (s *Station) connect(port string) error {
	if s.src != nil {
		s.closeLink(statusDisconnected)
	}
	s.wantConnected = true
	s.port = port

	src, err := s.dial(port)
	if err != nil {
		s.status = fmt.Sprintf("%s: %v", statusDisconnected, err)
		s.reconnectAt = s.clock.Now().Add(s.cfg.ReconnectDelay)
		return err
	}

	start := s.clock.Now()
	if s.cfg.Session.ElapsedMode == config.ElapsedContinue && !s.firstStart.IsZero() {
		start = s.firstStart
	}
	if s.firstStart.IsZero() {
		s.firstStart = start
	}
	s.src = src
	s.decoder = telemetry.NewDecoder(start, s.clock)
	s.status = "CONNECTED: " + s.linkName()
	log.Printf("station: connected to %s", s.linkName())

	if s.cfg.Log.Autostart && !s.logger.Active() {
		if _, err := s.startLog(); err != nil {
			log.Printf("station: log autostart failed: %v", err)
		}
	}
	return nil
}

func (s *Station) linkName() string {
	switch s.cfg.Transport {
	case config.TransportMQTT:
		return s.cfg.MQTT.Broker
	case config.TransportSim:
		return "simulator"
	}
	if s.port != "" {
		return s.port
	}
	return s.cfg.Serial.Port
}

func (s *Station) linkFailed(err error) {
	log.Printf("station: link failed: %v", err)
	s.closeLink(fmt.Sprintf("%s: %v", statusDisconnected, err))
	s.reconnectAt = s.clock.Now().Add(s.cfg.ReconnectDelay)
}

// closeLink releases the link and ends any log session.
func (s *Station) closeLink(status string) {
	if s.src != nil {
		if err := s.src.Close(); err != nil {
			log.Printf("station: close link: %v", err)
		}
		s.src = nil
	}
	s.decoder = nil
	s.status = status
	if s.logger.Active() {
		if err := s.stopLog(); err != nil {
			log.Printf("station: log stop failed: %v", err)
		}
	}
}

func (s *Station) startLog() (datalog.Paths, error) {
	return s.logger.Start()
}

func (s *Station) stopLog() error {
	return s.logger.Stop()
}
