package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/securedoc/internal/dbx"
	"github.com/dmitrijs2005/securedoc/internal/server/models"
)

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Append inserts one entry. Exactly one row must be affected.
func (r *PostgresRepository) Append(ctx context.Context, e *models.AuditEntry) error {
	query := `
		INSERT INTO audit_entries
			(id, file_id, original_hash, redacted_hash, user_id, timestamp,
			 action, redaction_codes, reason, ip_address, user_agent, file_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID, e.FileID, e.OriginalHash, nullable(e.RedactedHash), e.OwnerID, e.Timestamp,
		string(e.Action), nullable(e.RedactionCodes), nullable(e.Reason),
		nullable(e.ClientIP), nullable(e.UserAgent), nullable(e.StoragePath))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Select returns entries for ownerID, optionally narrowed by file and
// action, ordered newest timestamp first.
func (r *PostgresRepository) Select(ctx context.Context, ownerID string, f Filter) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, file_id, original_hash, redacted_hash, user_id, timestamp,
		       action, redaction_codes, reason, ip_address, user_agent, file_path
		FROM audit_entries
		WHERE user_id = $1`
	args := []any{ownerID}

	if f.FileID != "" {
		args = append(args, f.FileID)
		query += fmt.Sprintf(" AND file_id = $%d", len(args))
	}
	if f.Action != "" {
		args = append(args, string(f.Action))
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	query += " ORDER BY timestamp DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit entries: %w", err)
	}
	defer rows.Close()

	var result []*models.AuditEntry
	for rows.Next() {
		var (
			item                                                 models.AuditEntry
			action                                               string
			redactedHash, codes, reason, ip, userAgent, filePath sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.FileID, &item.OriginalHash, &redactedHash,
			&item.OwnerID, &item.Timestamp, &action, &codes, &reason, &ip, &userAgent, &filePath); err != nil {
			return nil, err
		}
		item.Action = models.ActionKind(action)
		item.RedactedHash = redactedHash.String
		item.RedactionCodes = codes.String
		item.Reason = reason.String
		item.ClientIP = ip.String
		item.UserAgent = userAgent.String
		item.StoragePath = filePath.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
