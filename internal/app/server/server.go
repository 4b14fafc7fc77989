// Package server wires the fairdraw runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fairdraw/fairdraw/internal/api"
	"github.com/fairdraw/fairdraw/internal/draw/correlator"
	"github.com/fairdraw/fairdraw/internal/draw/escrow"
	"github.com/fairdraw/fairdraw/internal/draw/service"
	drawsqlite "github.com/fairdraw/fairdraw/internal/draw/storage/sqlite"
	"github.com/fairdraw/fairdraw/internal/oracle"
	"github.com/fairdraw/fairdraw/internal/platform/config"
	"github.com/fairdraw/fairdraw/internal/telemetry"
)

type serverEnv struct {
	DBPath         string `env:"FAIRDRAW_DB_PATH"`
	OracleURL      string `env:"FAIRDRAW_ORACLE_URL"`
	OracleKeyID    string `env:"FAIRDRAW_ORACLE_KEY_ID" envDefault:"key-main"`
	OracleFee      int64  `env:"FAIRDRAW_ORACLE_FEE" envDefault:"1"`
	JWTSecret      string `env:"FAIRDRAW_JWT_SECRET"`
	CallbackSecret string `env:"FAIRDRAW_CALLBACK_SECRET"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "fairdraw.db")
	}
	return cfg
}

// Server hosts the fairdraw HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *drawsqlite.Store
}

// New creates a configured server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	if strings.TrimSpace(env.JWTSecret) == "" {
		_ = listener.Close()
		return nil, errors.New("FAIRDRAW_JWT_SECRET is required")
	}
	if strings.TrimSpace(env.CallbackSecret) == "" {
		_ = listener.Close()
		return nil, errors.New("FAIRDRAW_CALLBACK_SECRET is required")
	}

	store, err := openDrawStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	ledger := escrow.NewLedger()
	oracleClient := oracle.NewClient(env.OracleURL, nil)
	corr := correlator.New(oracleClient, ledger, env.OracleKeyID, env.OracleFee)
	emitter := telemetry.NewEmitter(store)
	drawService := service.New(store, ledger, corr, emitter)

	handler := api.New(api.Options{
		Service:        drawService,
		Telemetry:      emitter,
		JWTSecret:      env.JWTSecret,
		CallbackSecret: env.CallbackSecret,
	}).Handler()

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store: store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("fairdraw server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close draw store: %v", err)
		}
	}
}

func openDrawStore(path string) (*drawsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := drawsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open draw sqlite store: %w", err)
	}
	return store, nil
}
