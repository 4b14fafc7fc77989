// Package integrity provides event hash helpers that protect the notification
// journal's tamper-evident chain.
//
// Each appended event carries a deterministic content hash, and chain hashes
// link every event to its predecessor so replay order can be verified by any
// observer of the feed.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fairdraw/fairdraw/internal/draw/domain"
)

// EventHash computes the content hash for a single event.
//
// The envelope is a fixed field order joined with newlines so the hash input
// cannot drift between writers and verifiers.
func EventHash(evt domain.Event) (string, error) {
	if evt.Type == "" {
		return "", fmt.Errorf("event type is required")
	}
	if evt.Timestamp.IsZero() {
		return "", fmt.Errorf("event timestamp is required")
	}

	envelope := strings.Join([]string{
		"fairdraw.event.v1",
		string(evt.Type),
		strconv.FormatInt(evt.SessionID, 10),
		strconv.FormatInt(evt.Timestamp.UTC().UnixMilli(), 10),
		evt.PayloadJSON,
	}, "\n")

	sum := sha256.Sum256([]byte(envelope))
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash computes the SHA-256 hash that links an event to its predecessor.
// The first event in the journal uses an empty prevHash.
func ChainHash(evt domain.Event, prevHash string) (string, error) {
	if evt.Hash == "" {
		return "", fmt.Errorf("event hash is required")
	}
	if evt.Seq == 0 {
		return "", fmt.Errorf("event seq is required")
	}

	envelope := strings.Join([]string{
		"fairdraw.chain.v1",
		strconv.FormatUint(evt.Seq, 10),
		evt.Hash,
		prevHash,
	}, "\n")

	sum := sha256.Sum256([]byte(envelope))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain walks a contiguous slice of events and checks every link.
// The prevHash argument anchors the first event; pass "" for a feed read
// from the beginning of the journal.
func VerifyChain(events []domain.Event, prevHash string) error {
	for i := range events {
		evt := events[i]
		hash, err := EventHash(evt)
		if err != nil {
			return fmt.Errorf("event %d: %w", evt.Seq, err)
		}
		if hash != evt.Hash {
			return fmt.Errorf("event %d: content hash mismatch", evt.Seq)
		}
		if evt.PrevHash != prevHash {
			return fmt.Errorf("event %d: broken chain link", evt.Seq)
		}
		chain, err := ChainHash(evt, prevHash)
		if err != nil {
			return fmt.Errorf("event %d: %w", evt.Seq, err)
		}
		if chain != evt.ChainHash {
			return fmt.Errorf("event %d: chain hash mismatch", evt.Seq)
		}
		prevHash = evt.ChainHash
	}
	return nil
}
