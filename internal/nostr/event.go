// Package nostr holds the wire-level data model shared by every part of
// the relay: events, filters, subscriptions, canonical hashing, Schnorr
// verification and the JSON-array wire codec. It has no dependency on
// storage, transport or configuration so it can be tested in isolation.
package nostr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Tag is one ordered sequence of strings, e.g. ["e", "<event-id>", "wss://relay"].
type Tag []string

// Name returns the tag's first element, or "" for an empty tag.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the tag's second element, or "" if it has none.
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Event is the atomic unit of content published and stored by the relay.
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// canonicalPayload builds the exact byte sequence signers hash:
// [0, pubkey, created_at, kind, tags, content], compact JSON, no HTML
// escaping, UTF-8. json.Marshal already omits insignificant whitespace;
// the encoder additionally disables HTML escaping so '<', '>' and '&' in
// content round-trip byte-for-byte with what the client signed.
func (e Event) canonicalPayload() ([]byte, error) {
	tags := e.Tags
	if tags == nil {
		tags = []Tag{}
	}
	arr := []interface{}{0, e.PubKey, e.CreatedAt, e.Kind, tags, e.Content}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(arr); err != nil {
		return nil, fmt.Errorf("canonicalize event: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; the hash must not include it.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// CanonicalID returns the SHA-256 of the event's canonical serialization.
func (e Event) CanonicalID() ([32]byte, error) {
	payload, err := e.canonicalPayload()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(payload), nil
}

// VerifyError enumerates the ways an event can fail validation.
type VerifyError int

const (
	VerifyOK VerifyError = iota
	VerifyInvalidID
	VerifyInvalidSignature
)

func (v VerifyError) String() string {
	switch v {
	case VerifyOK:
		return "ok"
	case VerifyInvalidID:
		return "invalid id"
	case VerifyInvalidSignature:
		return "invalid signature"
	default:
		return "unknown"
	}
}

// Verify checks that e.ID matches the canonical hash and that e.Sig is a
// valid BIP-340 Schnorr signature over that hash under e.PubKey. It does
// no I/O and mutates nothing.
func Verify(e Event) VerifyError {
	want, err := e.CanonicalID()
	if err != nil {
		return VerifyInvalidID
	}
	gotID, err := hex.DecodeString(e.ID)
	if err != nil || len(gotID) != 32 || !bytes.Equal(gotID, want[:]) {
		return VerifyInvalidID
	}

	pubkeyBytes, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pubkeyBytes) != 32 {
		return VerifyInvalidSignature
	}
	pubkey, err := schnorr.ParsePubKey(pubkeyBytes)
	if err != nil {
		return VerifyInvalidSignature
	}

	sigBytes, err := hex.DecodeString(e.Sig)
	if err != nil || len(sigBytes) != 64 {
		return VerifyInvalidSignature
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return VerifyInvalidSignature
	}

	if !sig.Verify(want[:], pubkey) {
		return VerifyInvalidSignature
	}
	return VerifyOK
}
