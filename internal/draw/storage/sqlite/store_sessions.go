package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/domain"
	"github.com/fairdraw/fairdraw/internal/draw/storage"
)

// CreateSession inserts a session and assigns the next monotonic ID.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.db == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	if session.Capacity <= 0 {
		return domain.Session{}, fmt.Errorf("capacity must be greater than zero")
	}
	createdAt := session.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := session.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	result, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   status,
		   capacity,
		   entry_fee,
		   pending_request_id,
		   winner,
		   created_at,
		   updated_at,
		   settled_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Status.String(),
		session.Capacity,
		session.EntryFee,
		session.PendingRequestID,
		session.Winner,
		toMillis(createdAt),
		toMillis(updatedAt),
		toNullMillis(session.SettledAt),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	session.ID = id
	session.CreatedAt = createdAt
	session.UpdatedAt = updatedAt
	return session, nil
}

// GetSession returns one session with its entrant list.
func (s *Store) GetSession(ctx context.Context, id int64) (domain.Session, error) {
	return s.getSessionWhere(ctx, "id = ?", id)
}

// CurrentSession returns the most recently configured session.
func (s *Store) CurrentSession(ctx context.Context) (domain.Session, error) {
	return s.getSessionWhere(ctx, "id = (SELECT MAX(id) FROM sessions)")
}

// InProgressSession returns the session currently open or awaiting
// randomness. At most one session can be in progress at a time.
func (s *Store) InProgressSession(ctx context.Context) (domain.Session, error) {
	return s.getSessionWhere(ctx, "status IN (?, ?)",
		domain.SessionStatusOpen.String(),
		domain.SessionStatusAwaitingRandomness.String(),
	)
}

func (s *Store) getSessionWhere(ctx context.Context, where string, args ...any) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.db == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, status, capacity, entry_fee, pending_request_id, winner,
		        created_at, updated_at, settled_at
		   FROM sessions
		  WHERE `+where,
		args...,
	)

	var session domain.Session
	var status string
	var createdAt int64
	var updatedAt int64
	var settledAt sql.NullInt64
	err := row.Scan(
		&session.ID,
		&status,
		&session.Capacity,
		&session.EntryFee,
		&session.PendingRequestID,
		&session.Winner,
		&createdAt,
		&updatedAt,
		&settledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, storage.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}

	session.Status = domain.SessionStatusFromString(status)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	session.SettledAt = fromNullMillis(settledAt)

	entrants, err := s.listEntrants(ctx, session.ID)
	if err != nil {
		return domain.Session{}, err
	}
	session.Entrants = entrants
	return session, nil
}

func (s *Store) listEntrants(ctx context.Context, sessionID int64) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT party_id
		   FROM session_entrants
		  WHERE session_id = ?
		  ORDER BY position ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entrants: %w", err)
	}
	defer rows.Close()

	entrants := []string{}
	for rows.Next() {
		var partyID string
		if err := rows.Scan(&partyID); err != nil {
			return nil, fmt.Errorf("list entrants: %w", err)
		}
		entrants = append(entrants, partyID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entrants: %w", err)
	}
	return entrants, nil
}

// UpdateSession persists a session's mutable lifecycle fields. The entrant
// list is append-only and written through AppendEntrant.
func (s *Store) UpdateSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if session.ID <= 0 {
		return fmt.Errorf("session id is required")
	}
	updatedAt := session.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
		    SET status = ?,
		        pending_request_id = ?,
		        winner = ?,
		        updated_at = ?,
		        settled_at = ?
		  WHERE id = ?`,
		session.Status.String(),
		session.PendingRequestID,
		session.Winner,
		toMillis(updatedAt),
		toNullMillis(session.SettledAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendEntrant records one entrant at a fixed position in the entry order.
func (s *Store) AppendEntrant(ctx context.Context, sessionID int64, position int, partyID string, joinedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}
	if position < 0 {
		return fmt.Errorf("position must not be negative")
	}
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO session_entrants (session_id, position, party_id, joined_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID,
		position,
		partyID,
		toMillis(joinedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append entrant: %w", err)
	}
	return nil
}

// ListSessions returns one page of session history, newest first.
func (s *Store) ListSessions(ctx context.Context, pageSize int, pageToken string) (storage.SessionPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionPage{}, err
	}
	if s == nil || s.db == nil {
		return storage.SessionPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.SessionPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	page := storage.SessionPage{
		Sessions: make([]domain.Session, 0, pageSize),
	}

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT id, status, capacity, entry_fee, pending_request_id, winner,
			        created_at, updated_at, settled_at
			   FROM sessions
			  ORDER BY id DESC
			  LIMIT ?`,
			pageSize+1,
		)
	} else {
		before, parseErr := strconv.ParseInt(pageToken, 10, 64)
		if parseErr != nil {
			return storage.SessionPage{}, fmt.Errorf("invalid page token %q", pageToken)
		}
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT id, status, capacity, entry_fee, pending_request_id, winner,
			        created_at, updated_at, settled_at
			   FROM sessions
			  WHERE id < ?
			  ORDER BY id DESC
			  LIMIT ?`,
			before,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var session domain.Session
		var status string
		var createdAt int64
		var updatedAt int64
		var settledAt sql.NullInt64
		if err := rows.Scan(
			&session.ID,
			&status,
			&session.Capacity,
			&session.EntryFee,
			&session.PendingRequestID,
			&session.Winner,
			&createdAt,
			&updatedAt,
			&settledAt,
		); err != nil {
			return storage.SessionPage{}, fmt.Errorf("list sessions: %w", err)
		}
		session.Status = domain.SessionStatusFromString(status)
		session.CreatedAt = fromMillis(createdAt)
		session.UpdatedAt = fromMillis(updatedAt)
		session.SettledAt = fromNullMillis(settledAt)
		page.Sessions = append(page.Sessions, session)
	}
	if err := rows.Err(); err != nil {
		return storage.SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}
	if len(page.Sessions) > pageSize {
		page.Sessions = page.Sessions[:pageSize]
		page.NextPageToken = strconv.FormatInt(page.Sessions[pageSize-1].ID, 10)
	}

	for i := range page.Sessions {
		entrants, err := s.listEntrants(ctx, page.Sessions[i].ID)
		if err != nil {
			return storage.SessionPage{}, err
		}
		page.Sessions[i].Entrants = entrants
	}

	return page, nil
}
