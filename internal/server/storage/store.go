// Package storage implements per-owner file custody: physical persistence of
// file variants and the access-isolation gate. The physical layout (local
// directories or object-storage keys) is an implementation detail; callers
// only see (ownerID, fileID, variant) coordinates.
package storage

import (
	"context"
	"strings"
)

// Variant names one of the two stored forms of a file.
type Variant string

const (
	// VariantOriginal is the uploaded document, immutable once written.
	VariantOriginal Variant = "original"
	// VariantRedacted is the output of a redaction run. It may be
	// overwritten by a subsequent run.
	VariantRedacted Variant = "redacted"
)

// Store is the custody contract. Implementations must be safe for concurrent
// use across different fileIDs and must never expose partially written
// content (atomic replace semantics for Put).
type Store interface {
	// Put persists b under (ownerID, fileID, variant), creating the owner
	// namespace if absent. I/O failures are reported as
	// common.ErrStorageFailure.
	Put(ctx context.Context, ownerID, fileID string, v Variant, b []byte) error

	// Get returns the stored bytes or common.ErrNotFound.
	Get(ctx context.Context, ownerID, fileID string, v Variant) ([]byte, error)

	// Exists reports whether the variant is present.
	Exists(ctx context.Context, ownerID, fileID string, v Variant) (bool, error)

	// Delete removes the variant. Used only to compensate a failed audit
	// append; missing files are not an error.
	Delete(ctx context.Context, ownerID, fileID string, v Variant) error

	// AssertAccessible is the sole access-control gate: it fails with
	// common.ErrAccessDenied unless at least one variant of fileID exists
	// under exactly this ownerID. It never reveals whether the file exists
	// under another owner.
	AssertAccessible(ctx context.Context, ownerID, fileID string) error

	// Path returns the storage location recorded in the audit ledger.
	Path(ownerID, fileID string, v Variant) string
}

// safeSegment guards against path traversal through caller-supplied IDs.
// Owner and file IDs are server-minted UUIDs, but fileID arrives back from
// the client on redact/download and must not escape its namespace.
func safeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}
