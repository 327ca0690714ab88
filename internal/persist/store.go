package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrNotFound    = errors.New("save not found")
	ErrInvalidSlot = errors.New("invalid save slot")
)

// Record describes one stored save. The blob itself is returned separately.
type Record struct {
	ID        uuid.UUID
	Slot      string
	Tick      uint64
	Size      int
	Checksum  string
	CreatedAt time.Time
}

// Store keeps encoded saves grouped by slot. Slots are normalised on every
// call, so "Main" and "main" address the same saves.
type Store interface {
	Save(ctx context.Context, slot string, tick uint64, blob []byte) (Record, error)
	// LoadLatest returns the newest save in slot, or ErrNotFound.
	LoadLatest(ctx context.Context, slot string) (Record, []byte, error)
	// List returns the saves in slot, newest first.
	List(ctx context.Context, slot string) ([]Record, error)
	// Prune deletes all but the newest keep saves in slot.
	Prune(ctx context.Context, slot string, keep int) (int, error)
	Close() error
}

// NormalizeSlot returns the canonical form of a slot name: NFC, case-folded,
// surrounding space trimmed.
func NormalizeSlot(slot string) (string, error) {
	s := strings.TrimSpace(norm.NFC.String(slot))
	s = cases.Fold().String(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSlot)
	}
	if len(s) > 64 {
		return "", fmt.Errorf("%w: %q longer than 64 bytes", ErrInvalidSlot, s)
	}
	return s, nil
}

func newRecord(slot string, tick uint64, blob []byte) Record {
	return Record{
		ID:        uuid.New(),
		Slot:      slot,
		Tick:      tick,
		Size:      len(blob),
		Checksum:  checksumOf(blob),
		CreatedAt: time.Now().UTC(),
	}
}
