package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/storage"
)

// PutRequest records an outstanding requestID -> sessionID correlation.
func (s *Store) PutRequest(ctx context.Context, requestID string, sessionID int64, issuedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return fmt.Errorf("request id is required")
	}
	if sessionID <= 0 {
		return fmt.Errorf("session id is required")
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO oracle_requests (request_id, session_id, issued_at)
		 VALUES (?, ?, ?)`,
		requestID,
		sessionID,
		toMillis(issuedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put oracle request: %w", err)
	}
	return nil
}

// TakeRequest atomically reads and removes one correlation record. Unknown
// request IDs return ErrNotFound and leave the table untouched.
func (s *Store) TakeRequest(ctx context.Context, requestID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return 0, fmt.Errorf("request id is required")
	}

	row := s.db.QueryRowContext(
		ctx,
		`DELETE FROM oracle_requests
		  WHERE request_id = ?
		 RETURNING session_id`,
		requestID,
	)

	var sessionID int64
	if err := row.Scan(&sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("take oracle request: %w", err)
	}
	return sessionID, nil
}
