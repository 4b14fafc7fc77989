package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
	"github.com/fairdraw/fairdraw/internal/platform/id"
	"github.com/fairdraw/fairdraw/internal/telemetry"
)

// Caller roles encoded in JWT claims.
const (
	RoleOperator = "operator"
	RoleEntrant  = "entrant"
)

// Claims identifies an operator or entrant caller.
type Claims struct {
	PartyID string `json:"party_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey struct{}

var claimsKey contextKey

// ClaimsFromContext returns the authenticated caller's claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// IssueToken signs a JWT for the given party and role. Used by operator
// tooling and tests.
func IssueToken(secret []byte, partyID, role string, ttl time.Duration) (string, error) {
	tokenID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	claims := &Claims{
		PartyID: partyID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return "", false
	}
	return token, true
}

// requireRole authenticates the bearer token and checks the caller's role.
// Operators may call entrant endpoints; entrants may not call operator ones.
func (a *API) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			a.writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "missing bearer token"))
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return a.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			a.writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "invalid token"))
			return
		}
		if claims.Role != role && claims.Role != RoleOperator {
			a.writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "insufficient role"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// callbackAuth admits only callers presenting the oracle callback shared
// secret. This check is the trust boundary for settlement: randomness is
// only accepted from the path the genuine oracle can reach. Rejections are
// recorded as security telemetry.
func (a *API) callbackAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret, ok := bearerToken(r)
		if !ok || a.callbackSecret == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(a.callbackSecret)) != 1 {
			_ = a.telemetry.Emitf(r.Context(), "oracle.callback.unauthorized", telemetry.SeverityWarn,
				fmt.Sprintf("remote_addr=%s", r.RemoteAddr))
			a.writeError(w, r, apperrors.New(apperrors.CodeUnauthorized, "callback secret mismatch"))
			return
		}
		next(w, r)
	}
}
