// Package models defines server-side data models for the redaction service.
package models

import "time"

// ActionKind enumerates the auditable actions.
type ActionKind string

const (
	// ActionUploaded is recorded once per successful upload.
	ActionUploaded ActionKind = "FILE_UPLOADED"
	// ActionRedactionApplied is recorded once per successful redaction run.
	ActionRedactionApplied ActionKind = "REDACTION_APPLIED"
)

// AuditEntry is one immutable record of the append-only audit ledger.
// Entries are created exactly once per upload and once per redaction
// operation and are never updated or deleted afterwards; they are the
// compliance record.
//
// The JSON field names mirror the ledger's column names so that audit query
// responses expose the stored record verbatim.
type AuditEntry struct {
	ID           string     `json:"id"`
	FileID       string     `json:"file_id"`
	OriginalHash string     `json:"original_hash"`
	RedactedHash string     `json:"redacted_hash,omitempty"`
	OwnerID      string     `json:"user_id"`
	Timestamp    time.Time  `json:"timestamp"`
	Action       ActionKind `json:"action"`
	// RedactionCodes is the comma-joined list of area codes of one
	// redaction run. Empty for uploads.
	RedactionCodes string `json:"redaction_codes,omitempty"`
	Reason         string `json:"reason,omitempty"`
	ClientIP       string `json:"ip_address,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	StoragePath    string `json:"file_path,omitempty"`
}
