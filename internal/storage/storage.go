// Package storage defines the shared key-value store that all peers read and
// write. It is the only channel between peers: there are no transactions and
// no compare-and-swap, so every read is a snapshot that may already be stale.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Well-known keys shared by every peer.
const (
	KeyAuthority     = "authority"
	KeyBodies        = "bodies"
	KeyMousePosition = "mousePosition"
	KeyMouseDown     = "mouseDown"
	KeyMouseWindow   = "mouseWindow"

	// PeerRectPrefix prefixes the per-peer window rectangle key (pos<peerId>).
	PeerRectPrefix = "pos"
)

// Store is a last-write-wins string key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites the value for key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

// Lookup is Get with the not-found case folded into the boolean.
func Lookup(ctx context.Context, s Store, key string) (string, bool, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Scan returns every key/value pair under prefix. Keys deleted between the
// listing and the read are skipped.
func Scan(ctx context.Context, s Store, prefix string) (map[string]string, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := Lookup(ctx, s, k)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", k, err)
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// PeerRectKey returns the key under which a peer publishes its window.
func PeerRectKey(peerID string) string { return PeerRectPrefix + peerID }

// PeerIDFromRectKey strips the rectangle prefix. ok is false for other keys.
func PeerIDFromRectKey(key string) (string, bool) {
	if !strings.HasPrefix(key, PeerRectPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, PeerRectPrefix), true
}
