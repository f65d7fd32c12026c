// Package db persists the per-chat session credential.
// Nothing else is stored locally; every entity lives in the remote API.
package db

import "context"

// CredentialStore keeps small string values per (chat, key).
type CredentialStore interface {
	// Get returns ok=false when nothing is stored under key.
	Get(ctx context.Context, chatID int64, key string) (value string, ok bool, err error)
	Put(ctx context.Context, chatID int64, key, value string) error
	Delete(ctx context.Context, chatID int64, key string) error
	Ping(ctx context.Context) error
	Close() error
}
