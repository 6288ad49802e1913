// Package services contains the server-side business logic. This file
// implements RedactionService, the orchestrator that composes custody
// storage, the redaction engine, and the audit ledger.
//
// Per file the lifecycle is NONE -> UPLOADED -> REDACTED. A redaction may be
// re-run (the redacted variant is overwritten and a new ledger entry is
// appended), but every run re-checks the same preconditions. An operation
// whose ledger append fails is rolled back and reported as failed: the audit
// trail never silently misses an event.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/dbx"
	"github.com/dmitrijs2005/securedoc/internal/hashx"
	"github.com/dmitrijs2005/securedoc/internal/logging"
	"github.com/dmitrijs2005/securedoc/internal/server/config"
	"github.com/dmitrijs2005/securedoc/internal/server/models"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/audit"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/securedoc/internal/server/storage"
)

var pdfHeader = []byte("%PDF-")

// RedactionEngine is the document transformation used by Redact. Implemented
// by pdf.Engine.
type RedactionEngine interface {
	// PageCount parses b and returns the number of pages.
	PageCount(b []byte) (int, error)
	// Apply stamps the areas and returns the re-serialized document.
	Apply(b []byte, areas []models.RedactionArea) ([]byte, error)
}

// signedURLStore is implemented by custody backends that can hand out
// temporary direct download URLs (storage.S3Store).
type signedURLStore interface {
	SignedGetURL(ctx context.Context, ownerID, fileID string, v storage.Variant, expires time.Duration) (string, error)
}

// UploadResult is returned by Upload.
type UploadResult struct {
	FileID   string
	Hash     string
	FileName string
	Size     int
}

// RedactResult is returned by Redact.
type RedactResult struct {
	FileID       string
	RedactedHash string
	AreaCount    int
	DownloadURL  string
}

// DownloadResult is returned by Download.
type DownloadResult struct {
	FileName string
	Bytes    []byte
	Variant  storage.Variant
}

// RedactionService coordinates uploads, redactions, downloads, and audit
// queries. It holds no persistent state of its own.
type RedactionService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  storage.Store
	engine RedactionEngine
	config *config.Config
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedactionService constructs the orchestrator.
func NewRedactionService(db *sql.DB, repos repomanager.RepositoryManager, store storage.Store,
	engine RedactionEngine, cfg *config.Config, logger logging.Logger) *RedactionService {
	return &RedactionService{
		db:     db,
		repos:  repos,
		store:  store,
		engine: engine,
		config: cfg,
		logger: logger.With("module", "redaction_service"),
		locks:  map[string]*sync.Mutex{},
	}
}

// fileLock serializes operations per fileID so that two concurrent
// redactions of the same file cannot interleave reads and writes.
func (s *RedactionService) fileLock(fileID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[fileID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[fileID] = l
	}
	return l
}

// appendEntry writes one ledger entry inside its own transaction.
func (s *RedactionService) appendEntry(ctx context.Context, e *models.AuditEntry) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Audit(tx).Append(ctx, e)
	})
}

// assertOwner consults the ownership index before any storage access. An
// unregistered fileID and a mismatched owner both fail with the same
// sentinel, so a caller cannot learn whether another owner's file exists.
func (s *RedactionService) assertOwner(ctx context.Context, ownerID, fileID string, sentinel error) error {
	owner, err := s.repos.Ownership(s.db).OwnerOf(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: file %s", sentinel, fileID)
		}
		return fmt.Errorf("checking ownership: %w", err)
	}
	if owner != ownerID {
		return fmt.Errorf("%w: file %s", sentinel, fileID)
	}
	return nil
}

// Upload validates and stores a new original document, records the UPLOADED
// ledger entry, and returns the fresh fileID with the content hash.
func (s *RedactionService) Upload(ctx context.Context, ownerID string, b []byte,
	declaredName, declaredMIME, clientIP, userAgent string) (*UploadResult, error) {

	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner identity", common.ErrInvalidInput)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: no file uploaded", common.ErrInvalidInput)
	}
	if int64(len(b)) > s.config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrInvalidInput, s.config.MaxUploadBytes)
	}
	if declaredMIME != "application/pdf" {
		return nil, fmt.Errorf("%w: only PDF files are allowed", common.ErrInvalidInput)
	}
	if !bytes.HasPrefix(b, pdfHeader) {
		return nil, fmt.Errorf("%w: payload is not a PDF document", common.ErrInvalidInput)
	}
	if _, err := s.engine.PageCount(b); err != nil {
		return nil, fmt.Errorf("%w: payload is not a readable PDF document", common.ErrInvalidInput)
	}

	fileID := uuid.NewString()
	if err := s.store.Put(ctx, ownerID, fileID, storage.VariantOriginal, b); err != nil {
		return nil, fmt.Errorf("storing original: %w", err)
	}

	hash := hashx.Sum(b)
	entry := &models.AuditEntry{
		ID:           uuid.NewString(),
		FileID:       fileID,
		OriginalHash: hash,
		OwnerID:      ownerID,
		Timestamp:    time.Now().UTC(),
		Action:       models.ActionUploaded,
		ClientIP:     clientIP,
		UserAgent:    userAgent,
		StoragePath:  s.store.Path(ownerID, fileID, storage.VariantOriginal),
	}

	// Ownership registration and the ledger entry commit together: a file
	// the index does not know about cannot be reached, audited or not.
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Ownership(tx).Register(ctx, fileID, ownerID); err != nil {
			return err
		}
		return s.repos.Audit(tx).Append(ctx, entry)
	})
	if err != nil {
		// The upload is only successful once it is audited. Undo the store
		// write so no unaudited file remains readable.
		if delErr := s.store.Delete(ctx, ownerID, fileID, storage.VariantOriginal); delErr != nil {
			s.logger.Error(ctx, "audit append failed and rollback failed, stored file has no ledger entry",
				"file_id", fileID, "owner", ownerID, "append_error", err.Error(), "rollback_error", delErr.Error())
			return nil, fmt.Errorf("%w: %v", common.ErrPartialFailure, err)
		}
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "file_id", fileID, "owner", ownerID, "size", len(b))
	return &UploadResult{FileID: fileID, Hash: hash, FileName: declaredName, Size: len(b)}, nil
}

// Redact applies the areas to the stored original, persists the redacted
// variant, and records the REDACTION_APPLIED ledger entry.
func (s *RedactionService) Redact(ctx context.Context, ownerID, fileID string,
	areas []models.RedactionArea, reason, clientIP, userAgent string) (*RedactResult, error) {

	if fileID == "" {
		return nil, fmt.Errorf("%w: no fileId provided", common.ErrInvalidInput)
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("%w: no redaction areas provided", common.ErrInvalidInput)
	}
	for _, a := range areas {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	if reason == "" {
		reason = s.config.DefaultReason
	}

	lock := s.fileLock(fileID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.assertOwner(ctx, ownerID, fileID, common.ErrNotFound); err != nil {
		return nil, err
	}

	original, err := s.store.Get(ctx, ownerID, fileID, storage.VariantOriginal)
	if err != nil {
		return nil, fmt.Errorf("fetching original: %w", err)
	}

	redacted, err := s.engine.Apply(original, areas)
	if err != nil {
		return nil, fmt.Errorf("applying redaction: %w", err)
	}

	// Snapshot any previous redacted variant so a failed audit append can
	// restore the prior state instead of leaving an unaudited result.
	prior, priorErr := s.store.Get(ctx, ownerID, fileID, storage.VariantRedacted)
	hadPrior := priorErr == nil

	if err := s.store.Put(ctx, ownerID, fileID, storage.VariantRedacted, redacted); err != nil {
		return nil, fmt.Errorf("storing redacted variant: %w", err)
	}

	codes := make([]string, 0, len(areas))
	for _, a := range areas {
		codes = append(codes, a.RedactionCode)
	}

	entry := &models.AuditEntry{
		ID:             uuid.NewString(),
		FileID:         fileID,
		OriginalHash:   hashx.Sum(original),
		RedactedHash:   hashx.Sum(redacted),
		OwnerID:        ownerID,
		Timestamp:      time.Now().UTC(),
		Action:         models.ActionRedactionApplied,
		RedactionCodes: strings.Join(codes, ","),
		Reason:         reason,
		ClientIP:       clientIP,
		UserAgent:      userAgent,
		StoragePath:    s.store.Path(ownerID, fileID, storage.VariantRedacted),
	}
	if err := s.appendEntry(ctx, entry); err != nil {
		var undoErr error
		if hadPrior {
			undoErr = s.store.Put(ctx, ownerID, fileID, storage.VariantRedacted, prior)
		} else {
			undoErr = s.store.Delete(ctx, ownerID, fileID, storage.VariantRedacted)
		}
		if undoErr != nil {
			s.logger.Error(ctx, "audit append failed and rollback failed, redacted file has no ledger entry",
				"file_id", fileID, "owner", ownerID, "append_error", err.Error(), "rollback_error", undoErr.Error())
			return nil, fmt.Errorf("%w: %v", common.ErrPartialFailure, err)
		}
		return nil, fmt.Errorf("recording redaction: %w", err)
	}

	s.logger.Info(ctx, "redaction applied",
		"file_id", fileID, "owner", ownerID, "areas", len(areas), "codes", entry.RedactionCodes)

	return &RedactResult{
		FileID:       fileID,
		RedactedHash: entry.RedactedHash,
		AreaCount:    len(areas),
		DownloadURL:  s.downloadURL(ctx, ownerID, fileID),
	}, nil
}

// downloadURL prefers a presigned object-storage URL when the custody
// backend offers one, falling back to the service's own download route.
func (s *RedactionService) downloadURL(ctx context.Context, ownerID, fileID string) string {
	if signer, ok := s.store.(signedURLStore); ok {
		url, err := signer.SignedGetURL(ctx, ownerID, fileID, storage.VariantRedacted, s.config.DownloadURLValidity)
		if err == nil {
			return url
		}
		s.logger.Warn(ctx, "presigning download URL failed, falling back to API route",
			"file_id", fileID, "error", err.Error())
	}
	return "/api/redaction/download/" + fileID
}

// Download returns the redacted variant when present, the original
// otherwise. Access is checked before any byte leaves custody.
func (s *RedactionService) Download(ctx context.Context, ownerID, fileID string) (*DownloadResult, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: no fileId provided", common.ErrInvalidInput)
	}
	if err := s.assertOwner(ctx, ownerID, fileID, common.ErrAccessDenied); err != nil {
		return nil, err
	}
	if err := s.store.AssertAccessible(ctx, ownerID, fileID); err != nil {
		return nil, err
	}

	b, err := s.store.Get(ctx, ownerID, fileID, storage.VariantRedacted)
	if err == nil {
		return &DownloadResult{FileName: "redacted-" + fileID + ".pdf", Bytes: b, Variant: storage.VariantRedacted}, nil
	}
	b, err = s.store.Get(ctx, ownerID, fileID, storage.VariantOriginal)
	if err != nil {
		return nil, fmt.Errorf("fetching document: %w", err)
	}
	return &DownloadResult{FileName: fileID + ".pdf", Bytes: b, Variant: storage.VariantOriginal}, nil
}

// Audit returns the caller's ledger entries newest-first, optionally
// narrowed to one file or one action kind.
func (s *RedactionService) Audit(ctx context.Context, ownerID string, f audit.Filter) ([]*models.AuditEntry, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner identity", common.ErrInvalidInput)
	}
	entries, err := s.repos.Audit(s.db).Select(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("querying audit trail: %w", err)
	}
	return entries, nil
}
