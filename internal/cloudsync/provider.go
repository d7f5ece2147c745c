// Package cloudsync orchestrates encrypted backup and restore of the local
// store through a pluggable cloud storage provider.
//
// A backup exports the full snapshot, derives a key from the user's
// password, seals the snapshot with authenticated encryption, and uploads
// the blob. Restore reverses the pipeline and replaces local state in one
// transaction. The provider only ever sees ciphertext: neither the
// plaintext snapshot nor the derived key crosses that boundary or appears
// in logs.
package cloudsync

import (
	"context"
	"errors"
)

// Provider is the capability a cloud storage backend must offer. The sync
// engine depends on nothing else about the backend, so implementations are
// swappable without touching the engine.
type Provider interface {
	// Authenticate establishes credentials with the backend. It is called
	// lazily before the first upload or download and must be safe to call
	// more than once.
	Authenticate(ctx context.Context) error

	// Upload stores the encrypted blob in the user's well-known backup
	// slot, replacing any previous backup.
	Upload(ctx context.Context, data []byte) error

	// Download retrieves the current backup blob. A missing backup is not
	// an error: Download returns (nil, nil).
	Download(ctx context.Context) ([]byte, error)
}

var (
	// ErrProvider wraps network or auth failures from the cloud provider.
	// Backup aborts before uploading anything; restore aborts before
	// touching local state.
	ErrProvider = errors.New("cloud provider error")

	// ErrInvalidPasswordOrCorruptData is returned when authenticated
	// decryption fails during restore: either the password is wrong or
	// the blob is corrupted. The two cases are cryptographically
	// indistinguishable, and local state is left untouched. Callers
	// should prompt for the password again rather than assume corruption.
	ErrInvalidPasswordOrCorruptData = errors.New("invalid password or corrupt backup data")
)
