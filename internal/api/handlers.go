package api

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fairdraw/fairdraw/internal/draw/domain"
	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
)

type sessionResponse struct {
	ID               int64      `json:"id"`
	Status           string     `json:"status"`
	Capacity         int        `json:"capacity"`
	EntryFee         int64      `json:"entry_fee"`
	Entrants         []string   `json:"entrants"`
	PendingRequestID string     `json:"pending_request_id,omitempty"`
	Winner           string     `json:"winner,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	SettledAt        *time.Time `json:"settled_at,omitempty"`
}

func toSessionResponse(session domain.Session) sessionResponse {
	entrants := session.Entrants
	if entrants == nil {
		entrants = []string{}
	}
	return sessionResponse{
		ID:               session.ID,
		Status:           session.Status.String(),
		Capacity:         session.Capacity,
		EntryFee:         session.EntryFee,
		Entrants:         entrants,
		PendingRequestID: session.PendingRequestID,
		Winner:           session.Winner,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
		SettledAt:        session.SettledAt,
	}
}

func (a *API) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Capacity int   `json:"capacity"`
		EntryFee int64 `json:"entry_fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeInvalidCapacity, "invalid request body"))
		return
	}

	session, err := a.service.Configure(r.Context(), req.Capacity, req.EntryFee)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (a *API) handleEnter(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		a.writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "missing caller identity"))
		return
	}

	var req struct {
		Value int64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeWrongPayment, "invalid request body"))
		return
	}

	session, err := a.service.Enter(r.Context(), claims.PartyID, req.Value)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *API) handleOracleCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestID  string `json:"request_id"`
		Randomness string `json:"randomness"`
		Proof      string `json:"proof"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeUnknownRequest, "invalid request body"))
		return
	}

	randomness, ok := new(big.Int).SetString(req.Randomness, 0)
	if !ok || randomness.Sign() < 0 {
		a.writeError(w, r, apperrors.New(apperrors.CodeUnknownRequest, "randomness must be a non-negative integer"))
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeUnknownRequest, "proof must be hex encoded"))
		return
	}

	session, err := a.service.OnRandomnessReceived(r.Context(), req.RequestID, randomness, proof)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *API) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.CurrentSession(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "invalid session id"))
		return
	}

	session, err := a.service.Session(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			a.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "invalid page_size"))
			return
		}
		pageSize = parsed
	}

	page, err := a.service.ListSessions(r.Context(), pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	sessions := make([]sessionResponse, 0, len(page.Sessions))
	for _, session := range page.Sessions {
		sessions = append(sessions, toSessionResponse(session))
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"sessions":        sessions,
		"next_page_token": page.NextPageToken,
	})
}

func (a *API) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := a.service.Balances(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"session_id":     balances.SessionID,
		"escrow":         balances.Escrow,
		"oracle_credits": balances.OracleCredits,
	})
}

func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var afterSeq uint64
	if raw := r.URL.Query().Get("after_seq"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			a.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "invalid after_seq"))
			return
		}
		afterSeq = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			a.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "invalid limit"))
			return
		}
		limit = parsed
	}

	events, err := a.service.Events(r.Context(), afterSeq, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	type eventResponse struct {
		Seq       uint64          `json:"seq"`
		Type      string          `json:"type"`
		SessionID int64           `json:"session_id"`
		Payload   json.RawMessage `json:"payload"`
		Timestamp time.Time       `json:"timestamp"`
		Hash      string          `json:"hash"`
		PrevHash  string          `json:"prev_hash"`
		ChainHash string          `json:"chain_hash"`
	}
	out := make([]eventResponse, 0, len(events))
	for _, evt := range events {
		out = append(out, eventResponse{
			Seq:       evt.Seq,
			Type:      string(evt.Type),
			SessionID: evt.SessionID,
			Payload:   json.RawMessage(evt.PayloadJSON),
			Timestamp: evt.Timestamp,
			Hash:      evt.Hash,
			PrevHash:  evt.PrevHash,
			ChainHash: evt.ChainHash,
		})
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (a *API) handleDeposit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeInvalidAmount, "invalid request body"))
		return
	}

	account, err := a.service.Deposit(r.Context(), vars["party_id"], req.Amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"party_id": account.PartyID,
		"balance":  account.Balance,
		"frozen":   account.Frozen,
	})
}

func (a *API) handleAddOracleCredits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, apperrors.New(apperrors.CodeInvalidAmount, "invalid request body"))
		return
	}

	balance, err := a.service.AddOracleCredits(r.Context(), req.Amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"oracle_credits": balance})
}
