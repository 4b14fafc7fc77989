// Package api exposes the raffle service over HTTP.
//
// Three caller classes exist: operators (configure sessions, fund accounts),
// entrants (join the open session), and the randomness oracle (callback).
// Operators and entrants authenticate with JWT bearer tokens; the oracle
// callback is authorized by a shared secret compared in constant time.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/fairdraw/fairdraw/internal/draw/service"
	"github.com/fairdraw/fairdraw/internal/telemetry"
)

// API routes HTTP requests to the draw service.
type API struct {
	router         *mux.Router
	service        *service.DrawService
	telemetry      *telemetry.Emitter
	jwtSecret      []byte
	callbackSecret string
}

// Options configures the API surface.
type Options struct {
	Service        *service.DrawService
	Telemetry      *telemetry.Emitter
	JWTSecret      string
	CallbackSecret string
}

// New creates an API with its routes registered.
func New(opts Options) *API {
	a := &API{
		router:         mux.NewRouter(),
		service:        opts.Service,
		telemetry:      opts.Telemetry,
		jwtSecret:      []byte(opts.JWTSecret),
		callbackSecret: opts.CallbackSecret,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	// Public queries
	a.router.HandleFunc("/v1/sessions", a.handleListSessions).Methods("GET")
	a.router.HandleFunc("/v1/sessions/current", a.handleCurrentSession).Methods("GET")
	a.router.HandleFunc("/v1/sessions/{id:[0-9]+}", a.handleGetSession).Methods("GET")
	a.router.HandleFunc("/v1/escrow", a.handleBalances).Methods("GET")
	a.router.HandleFunc("/v1/events", a.handleListEvents).Methods("GET")

	// Oracle callback, authorized by the shared secret only
	a.router.HandleFunc("/v1/oracle/callback", a.callbackAuth(a.handleOracleCallback)).Methods("POST")

	// Entrant endpoints
	a.router.HandleFunc("/v1/sessions/current/entries", a.requireRole(RoleEntrant, a.handleEnter)).Methods("POST")

	// Operator endpoints
	a.router.HandleFunc("/v1/sessions", a.requireRole(RoleOperator, a.handleConfigure)).Methods("POST")
	a.router.HandleFunc("/v1/accounts/{party_id}/deposits", a.requireRole(RoleOperator, a.handleDeposit)).Methods("POST")
	a.router.HandleFunc("/v1/oracle/credits", a.requireRole(RoleOperator, a.handleAddOracleCredits)).Methods("POST")
}

// Handler returns the routable handler with CORS applied.
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}
