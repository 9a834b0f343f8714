// Package web exposes the HTTP surface: a liveness probe, the messaging
// landing route, and the websocket upgrade endpoint feeding the hub.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GregoryFarmer/orthant/contract"
)

type Server struct {
	log  *slog.Logger
	hub  contract.IHub
	http *http.Server
}

func NewServer(addr string, hub contract.IHub, log *slog.Logger) *Server {
	s := &Server{log: log, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleLiveness)
	mux.HandleFunc("GET /messaging", s.handleMessaging)
	mux.HandleFunc("GET /ws", s.handleSocket)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown unwinds every live session through the hub first — websocket
// connections are hijacked, so http.Server.Shutdown would never close
// them — and then stops the listener and drains the plain HTTP requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Shutdown("server shutdown")
	return s.http.Shutdown(ctx)
}
