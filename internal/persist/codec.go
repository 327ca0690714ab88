package persist

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hearthfall/settlement/internal/game"
	"golang.org/x/crypto/blake2b"
)

const saveFormat = "settlement-save"

var ErrChecksum = errors.New("save checksum mismatch")

// envelope wraps the JSON save with a blake2b-256 digest of the payload.
type envelope struct {
	Format   string          `json:"format"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

func checksumOf(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// EncodeSave serialises a save for storage.
func EncodeSave(save *game.SaveData) ([]byte, error) {
	payload, err := save.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal save: %w", err)
	}
	return json.Marshal(envelope{Format: saveFormat, Checksum: checksumOf(payload), Payload: payload})
}

// DecodeSave verifies and parses a stored save. A digest mismatch is
// ErrChecksum; everything the game rejects keeps its game error.
func DecodeSave(blob []byte) (*game.SaveData, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", game.ErrCorruptSave, err)
	}
	if env.Format != saveFormat {
		return nil, fmt.Errorf("%w: format %q", game.ErrCorruptSave, env.Format)
	}
	if got := checksumOf(env.Payload); got != env.Checksum {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, env.Checksum)
	}
	return game.DecodeSave(env.Payload)
}
