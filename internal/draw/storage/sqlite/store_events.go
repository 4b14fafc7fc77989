package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/domain"
	"github.com/fairdraw/fairdraw/internal/draw/integrity"
)

// AppendEvent assigns the next sequence number, computes the content and
// chain hashes and inserts the event. Hashing happens here so every appended
// event is linked to its predecessor regardless of the caller.
func (s *Store) AppendEvent(ctx context.Context, evt domain.Event) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, err
	}
	if s == nil || s.db == nil {
		return domain.Event{}, fmt.Errorf("storage is not configured")
	}
	if evt.Type == "" {
		return domain.Event{}, fmt.Errorf("event type is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

	row := s.db.QueryRowContext(
		ctx,
		`SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1`,
	)
	var lastSeq uint64
	var prevHash string
	if err := row.Scan(&lastSeq, &prevHash); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, fmt.Errorf("read journal head: %w", err)
		}
		lastSeq = 0
		prevHash = ""
	}
	evt.Seq = lastSeq + 1
	evt.PrevHash = prevHash

	hash, err := integrity.EventHash(evt)
	if err != nil {
		return domain.Event{}, fmt.Errorf("compute event hash: %w", err)
	}
	evt.Hash = hash

	chainHash, err := integrity.ChainHash(evt, prevHash)
	if err != nil {
		return domain.Event{}, fmt.Errorf("compute chain hash: %w", err)
	}
	evt.ChainHash = chainHash

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO events (seq, type, session_id, payload, timestamp, hash, prev_hash, chain_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.Seq,
		string(evt.Type),
		evt.SessionID,
		evt.PayloadJSON,
		toMillis(evt.Timestamp),
		evt.Hash,
		evt.PrevHash,
		evt.ChainHash,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("append event: %w", err)
	}
	return evt, nil
}

// ListEvents returns up to limit events with seq greater than afterSeq, in
// journal order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT seq, type, session_id, payload, timestamp, hash, prev_hash, chain_hash
		   FROM events
		  WHERE seq > ?
		  ORDER BY seq ASC
		  LIMIT ?`,
		afterSeq,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var evt domain.Event
		var eventType string
		var timestamp int64
		if err := rows.Scan(
			&evt.Seq,
			&eventType,
			&evt.SessionID,
			&evt.PayloadJSON,
			&timestamp,
			&evt.Hash,
			&evt.PrevHash,
			&evt.ChainHash,
		); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		evt.Type = domain.EventType(eventType)
		evt.Timestamp = fromMillis(timestamp)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
