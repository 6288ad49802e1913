// Package audit provides the append-only ledger of upload and redaction
// events. Entries are immutable once written; the repository intentionally
// exposes no update or delete operation.
package audit

import (
	"context"

	"github.com/dmitrijs2005/securedoc/internal/server/models"
)

// Filter narrows a ledger query. Zero values mean "no restriction".
type Filter struct {
	FileID string
	Action models.ActionKind
}

type Repository interface {
	// Append inserts one ledger entry. It never overwrites existing rows.
	Append(ctx context.Context, e *models.AuditEntry) error

	// Select returns the caller's entries newest-first. Results are always
	// scoped to ownerID; a query for another owner's file yields an empty
	// result, never an error.
	Select(ctx context.Context, ownerID string, f Filter) ([]*models.AuditEntry, error)
}
