// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web is the browser shell of the ground station: a JSON API over
// the station, live charts, the rendered attitude view and a websocket feed
// of decoded messages.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/relabs-tech/rocket_groundstation/internal/datalog"
	"github.com/relabs-tech/rocket_groundstation/internal/series"
	"github.com/relabs-tech/rocket_groundstation/internal/station"
	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
	"github.com/relabs-tech/rocket_groundstation/internal/transport"
)

//go:embed index.html
var indexHTML []byte

// Station is the part of the station the shell drives.
type Station interface {
	Controller
	Snapshot(ctx context.Context) (station.Snapshot, error)
	Series(ctx context.Context) (series.Series, error)
	PushSample(ctx context.Context, sample telemetry.Sample) error
	ClearWindow(ctx context.Context) error
	SetAttitude(ctx context.Context, roll, pitch, yaw, altitude float64) error
	Connect(ctx context.Context, port string) error
	Disconnect(ctx context.Context) error
	StartLog(ctx context.Context) (datalog.Paths, error)
	StopLog(ctx context.Context) (datalog.Paths, error)
	LogStats(ctx context.Context) (datalog.Stats, bool, error)
	Command(ctx context.Context, line string) error
}

// Frames supplies the latest rendered attitude image.
type Frames interface {
	PNG() []byte
}

// Server serves the shell.
type Server struct {
	st        Station
	hub       *Hub
	frames    Frames
	listPorts func() ([]string, error)
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithFrames serves the attitude image from f.
func WithFrames(f Frames) Option {
	return func(s *Server) { s.frames = f }
}

// WithPortLister replaces serial port enumeration.
func WithPortLister(fn func() ([]string, error)) Option {
	return func(s *Server) { s.listPorts = fn }
}

// NewServer wires the routes. The hub forwards browser gestures to st.
func NewServer(addr string, st Station, hub *Hub, opts ...Option) *Server {
	s := &Server{
		st:        st,
		hub:       hub,
		listPorts: transport.ListPorts,
	}
	for _, opt := range opts {
		opt(s)
	}
	hub.control = st
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /charts", s.handleCharts)
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/window", s.handleWindow)
	mux.HandleFunc("GET /api/window.png", s.handleWindowPlot)
	mux.HandleFunc("POST /api/window/clear", s.handleClear)
	mux.HandleFunc("POST /api/samples", s.handleSample)

	mux.HandleFunc("GET /api/attitude.png", s.handleAttitudeImage)
	mux.HandleFunc("POST /api/attitude", s.handleAttitude)
	mux.HandleFunc("POST /api/camera", s.handleCamera)

	mux.HandleFunc("GET /api/ports", s.handlePorts)
	mux.HandleFunc("POST /api/connect", s.handleConnect)
	mux.HandleFunc("POST /api/disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /api/command", s.handleCommand)

	mux.HandleFunc("POST /api/log/start", s.handleLogStart)
	mux.HandleFunc("POST /api/log/stop", s.handleLogStop)
	mux.HandleFunc("GET /api/log/stats", s.handleLogStats)
	return mux
}

// Start serves until ctx is done, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("web: listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("web: shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			log.Printf("web: force close error: %v", err)
		}
	}
	log.Println("web: server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStationError maps a failed request to a status code.
func writeStationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, station.ErrStopped):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, station.ErrNotConnected):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, datalog.ErrAlreadyActive):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.st.Snapshot(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	ser, err := s.st.Series(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ser)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.st.ClearWindow(r.Context()); err != nil {
		writeStationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	var sample telemetry.Sample
	if !decode(w, r, &sample) {
		return
	}
	if err := s.st.PushSample(r.Context(), sample); err != nil {
		writeStationError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAttitudeImage(w http.ResponseWriter, r *http.Request) {
	if s.frames == nil {
		writeJSONError(w, http.StatusNotFound, "no renderer configured")
		return
	}
	img := s.frames.PNG()
	if len(img) == 0 {
		writeJSONError(w, http.StatusServiceUnavailable, "no frame rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img)
}

type attitudeRequest struct {
	Roll     float64 `json:"roll"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Altitude float64 `json:"altitude"`
}

func (s *Server) handleAttitude(w http.ResponseWriter, r *http.Request) {
	var req attitudeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.st.SetAttitude(r.Context(), req.Roll, req.Pitch, req.Yaw, req.Altitude); err != nil {
		writeStationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !decode(w, r, &in) {
		return
	}
	var err error
	switch in.Action {
	case "drag":
		err = s.st.Drag(r.Context(), in.DX, in.DY)
	case "scroll":
		err = s.st.Scroll(r.Context(), in.Delta)
	default:
		writeJSONError(w, http.StatusBadRequest, "action must be drag or scroll")
		return
	}
	if err != nil {
		writeStationError(w, err)
		return
	}
	snap, err := s.st.Snapshot(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Camera)
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	ports, err := s.listPorts()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ports == nil {
		ports = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ports": ports})
}

type connectRequest struct {
	Port string `json:"port"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if err := s.st.Connect(r.Context(), req.Port); err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Disconnect(r.Context()); err != nil {
		writeStationError(w, err)
		return
	}
	s.handleState(w, r)
}

type commandRequest struct {
	Line string `json:"line"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Line == "" {
		writeJSONError(w, http.StatusBadRequest, "line is required")
		return
	}
	if err := s.st.Command(r.Context(), req.Line); err != nil {
		writeStationError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleLogStart(w http.ResponseWriter, r *http.Request) {
	paths, err := s.st.StartLog(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

func (s *Server) handleLogStop(w http.ResponseWriter, r *http.Request) {
	paths, err := s.st.StopLog(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	st, ok, err := s.st.LogStats(r.Context())
	if err != nil {
		writeStationError(w, err)
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no samples logged")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
