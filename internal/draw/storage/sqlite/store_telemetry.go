package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/storage"
)

// AppendTelemetryEvent inserts one operational telemetry record.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	eventName := strings.TrimSpace(evt.EventName)
	if eventName == "" {
		return fmt.Errorf("event name is required")
	}
	severity := strings.TrimSpace(evt.Severity)
	if severity == "" {
		severity = "INFO"
	}
	timestamp := evt.Timestamp.UTC()
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (event_name, severity, detail, timestamp)
		 VALUES (?, ?, ?, ?)`,
		eventName,
		severity,
		evt.Detail,
		toMillis(timestamp),
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
