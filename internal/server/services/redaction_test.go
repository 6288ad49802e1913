package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/dbx"
	"github.com/dmitrijs2005/securedoc/internal/hashx"
	"github.com/dmitrijs2005/securedoc/internal/logging"
	"github.com/dmitrijs2005/securedoc/internal/server/config"
	"github.com/dmitrijs2005/securedoc/internal/server/models"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/audit"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/ownership"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/securedoc/internal/server/storage"
)

// -------- test fakes --------

type fakeAuditRepo struct {
	audit.Repository
	appendErr error
	appended  []*models.AuditEntry

	selected []*models.AuditEntry
	selErr   error
	gotOwner string
	gotF     audit.Filter
}

func (f *fakeAuditRepo) Append(ctx context.Context, e *models.AuditEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeAuditRepo) Select(ctx context.Context, ownerID string, fl audit.Filter) ([]*models.AuditEntry, error) {
	f.gotOwner = ownerID
	f.gotF = fl
	return f.selected, f.selErr
}

type fakeOwnershipRepo struct {
	ownership.Repository
	owners map[string]string
	regErr error
	ownErr error
}

func (f *fakeOwnershipRepo) Register(ctx context.Context, fileID, ownerID string) error {
	if f.regErr != nil {
		return f.regErr
	}
	f.owners[fileID] = ownerID
	return nil
}

func (f *fakeOwnershipRepo) OwnerOf(ctx context.Context, fileID string) (string, error) {
	if f.ownErr != nil {
		return "", f.ownErr
	}
	owner, ok := f.owners[fileID]
	if !ok {
		return "", common.ErrNotFound
	}
	return owner, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	a *fakeAuditRepo
	o *fakeOwnershipRepo
}

func newFakeRM(a *fakeAuditRepo) *fakeRepoManager {
	return &fakeRepoManager{a: a, o: &fakeOwnershipRepo{owners: map[string]string{}}}
}

func (m *fakeRepoManager) Audit(db dbx.DBTX) audit.Repository { return m.a }

func (m *fakeRepoManager) Ownership(db dbx.DBTX) ownership.Repository { return m.o }

type fakeStore struct {
	files map[string][]byte

	putErr map[storage.Variant]error
	delErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}, putErr: map[storage.Variant]error{}}
}

func (s *fakeStore) key(ownerID, fileID string, v storage.Variant) string {
	return ownerID + "/" + string(v) + "/" + fileID
}

func (s *fakeStore) Put(ctx context.Context, ownerID, fileID string, v storage.Variant, b []byte) error {
	if err := s.putErr[v]; err != nil {
		return err
	}
	s.files[s.key(ownerID, fileID, v)] = append([]byte(nil), b...)
	return nil
}

func (s *fakeStore) Get(ctx context.Context, ownerID, fileID string, v storage.Variant) ([]byte, error) {
	b, ok := s.files[s.key(ownerID, fileID, v)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) Exists(ctx context.Context, ownerID, fileID string, v storage.Variant) (bool, error) {
	_, ok := s.files[s.key(ownerID, fileID, v)]
	return ok, nil
}

func (s *fakeStore) Delete(ctx context.Context, ownerID, fileID string, v storage.Variant) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.files, s.key(ownerID, fileID, v))
	return nil
}

func (s *fakeStore) AssertAccessible(ctx context.Context, ownerID, fileID string) error {
	for _, v := range []storage.Variant{storage.VariantOriginal, storage.VariantRedacted} {
		if _, ok := s.files[s.key(ownerID, fileID, v)]; ok {
			return nil
		}
	}
	return common.ErrAccessDenied
}

func (s *fakeStore) Path(ownerID, fileID string, v storage.Variant) string {
	return s.key(ownerID, fileID, v)
}

// signingStore adds the presigned URL capability on top of fakeStore.
type signingStore struct {
	*fakeStore
	url string
	err error
}

func (s *signingStore) SignedGetURL(ctx context.Context, ownerID, fileID string, v storage.Variant, expires time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

// -------- helpers --------

var validPDF = []byte("%PDF-1.4 fake body")

func validAreas() []models.RedactionArea {
	return []models.RedactionArea{
		{PageNumber: 1, X: 10, Y: 20, Width: 100, Height: 30, RedactionCode: "SSN"},
		{PageNumber: 2, X: 0, Y: 0, Width: 50, Height: 10, RedactionCode: "DOB"},
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newService(t *testing.T, db *sql.DB, m *fakeRepoManager, store storage.Store, engine RedactionEngine) *RedactionService {
	t.Helper()
	cfg := &config.Config{
		MaxUploadBytes:      1024,
		DefaultReason:       "HIPAA compliance",
		DownloadURLValidity: time.Minute,
	}
	return NewRedactionService(db, m, store, engine, cfg, logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// seedFile installs an original variant plus its ownership row, as a
// completed upload would have.
func seedFile(t *testing.T, m *fakeRepoManager, store *fakeStore, ownerID, fileID string, b []byte) {
	t.Helper()
	if err := store.Put(context.Background(), ownerID, fileID, storage.VariantOriginal, b); err != nil {
		t.Fatal(err)
	}
	m.o.owners[fileID] = ownerID
}

// -------- tests --------

func TestUpload_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeAuditRepo{}
	m := newFakeRM(repo)
	store := newFakeStore()
	s := newService(t, db, m, store, &fakeEngine{pages: 2})

	res, err := s.Upload(context.Background(), "owner-1", validPDF, "report.pdf", "application/pdf", "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	if res.FileID == "" || res.FileName != "report.pdf" || res.Size != len(validPDF) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Hash != hashx.Sum(validPDF) {
		t.Fatalf("unexpected hash: %s", res.Hash)
	}

	stored, err := store.Get(context.Background(), "owner-1", res.FileID, storage.VariantOriginal)
	if err != nil || !bytes.Equal(stored, validPDF) {
		t.Fatalf("original not stored: %v", err)
	}
	if m.o.owners[res.FileID] != "owner-1" {
		t.Fatalf("ownership not registered: %+v", m.o.owners)
	}

	if len(repo.appended) != 1 {
		t.Fatalf("want 1 ledger entry, got %d", len(repo.appended))
	}
	e := repo.appended[0]
	if e.Action != models.ActionUploaded || e.FileID != res.FileID || e.OwnerID != "owner-1" ||
		e.OriginalHash != res.Hash || e.ClientIP != "10.0.0.1" || e.UserAgent != "test-agent" {
		t.Fatalf("unexpected ledger entry: %+v", e)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpload_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	big := append([]byte("%PDF-"), bytes.Repeat([]byte("x"), 2048)...)

	tests := []struct {
		name  string
		owner string
		b     []byte
		mime  string
		eng   *fakeEngine
	}{
		{"missing owner", "", validPDF, "application/pdf", &fakeEngine{pages: 1}},
		{"empty body", "o", nil, "application/pdf", &fakeEngine{pages: 1}},
		{"oversized", "o", big, "application/pdf", &fakeEngine{pages: 1}},
		{"wrong mime", "o", validPDF, "text/plain", &fakeEngine{pages: 1}},
		{"not a pdf", "o", []byte("hello"), "application/pdf", &fakeEngine{pages: 1}},
		{"unparseable", "o", validPDF, "application/pdf", &fakeEngine{parseErr: errBoom{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			s := newService(t, db, newFakeRM(&fakeAuditRepo{}), store, tt.eng)

			_, err := s.Upload(context.Background(), tt.owner, tt.b, "f.pdf", tt.mime, "", "")
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
			if len(store.files) != 0 {
				t.Fatalf("rejected upload must not be stored")
			}
		})
	}
}

func TestUpload_AppendFails_RollsBackStore(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAuditRepo{appendErr: errBoom{}}
	store := newFakeStore()
	s := newService(t, db, newFakeRM(repo), store, &fakeEngine{pages: 1})

	_, err := s.Upload(context.Background(), "o", validPDF, "f.pdf", "application/pdf", "", "")
	if err == nil || !strings.Contains(err.Error(), "recording upload:") {
		t.Fatalf("want wrapped append error, got %v", err)
	}
	if len(store.files) != 0 {
		t.Fatalf("stored file must be rolled back when the ledger append fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpload_RegisterFails_RollsBackStore(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAuditRepo{}
	m := newFakeRM(repo)
	m.o.regErr = errBoom{}
	store := newFakeStore()
	s := newService(t, db, m, store, &fakeEngine{pages: 1})

	_, err := s.Upload(context.Background(), "o", validPDF, "f.pdf", "application/pdf", "", "")
	if err == nil || !strings.Contains(err.Error(), "recording upload:") {
		t.Fatalf("want wrapped error, got %v", err)
	}
	if len(repo.appended) != 0 {
		t.Fatalf("ledger must not record an upload whose ownership failed to register")
	}
	if len(store.files) != 0 {
		t.Fatalf("stored file must be rolled back")
	}
}

func TestUpload_AppendAndRollbackFail_PartialFailure(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAuditRepo{appendErr: errBoom{}}
	store := newFakeStore()
	store.delErr = errBoom{}
	s := newService(t, db, newFakeRM(repo), store, &fakeEngine{pages: 1})

	_, err := s.Upload(context.Background(), "o", validPDF, "f.pdf", "application/pdf", "", "")
	if !errors.Is(err, common.ErrPartialFailure) {
		t.Fatalf("want ErrPartialFailure, got %v", err)
	}
}

func TestRedact_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeAuditRepo{}
	m := newFakeRM(repo)
	store := newFakeStore()
	redacted := []byte("%PDF-1.4 redacted")
	eng := &fakeEngine{pages: 2, out: redacted}
	s := newService(t, db, m, store, eng)

	ctx := context.Background()
	seedFile(t, m, store, "o", "file-1", validPDF)

	res, err := s.Redact(ctx, "o", "file-1", validAreas(), "", "10.0.0.2", "agent")
	if err != nil {
		t.Fatalf("Redact error: %v", err)
	}

	if res.FileID != "file-1" || res.AreaCount != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RedactedHash != hashx.Sum(redacted) {
		t.Fatalf("unexpected redacted hash: %s", res.RedactedHash)
	}
	if res.DownloadURL != "/api/redaction/download/file-1" {
		t.Fatalf("unexpected download URL: %s", res.DownloadURL)
	}

	got, err := store.Get(ctx, "o", "file-1", storage.VariantRedacted)
	if err != nil || !bytes.Equal(got, redacted) {
		t.Fatalf("redacted variant not stored: %v", err)
	}

	if len(repo.appended) != 1 {
		t.Fatalf("want 1 ledger entry, got %d", len(repo.appended))
	}
	e := repo.appended[0]
	if e.Action != models.ActionRedactionApplied || e.RedactionCodes != "SSN,DOB" ||
		e.Reason != "HIPAA compliance" || e.OriginalHash != hashx.Sum(validPDF) ||
		e.RedactedHash != hashx.Sum(redacted) {
		t.Fatalf("unexpected ledger entry: %+v", e)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRedact_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newService(t, db, newFakeRM(&fakeAuditRepo{}), newFakeStore(), &fakeEngine{})

	tests := []struct {
		name   string
		fileID string
		areas  []models.RedactionArea
	}{
		{"missing fileID", "", validAreas()},
		{"no areas", "f", nil},
		{"bad page", "f", []models.RedactionArea{{PageNumber: 0, Width: 1, Height: 1}}},
		{"bad dimensions", "f", []models.RedactionArea{{PageNumber: 1, Width: 0, Height: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Redact(context.Background(), "o", tt.fileID, tt.areas, "", "", "")
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRedact_UnregisteredFile(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newService(t, db, newFakeRM(&fakeAuditRepo{}), newFakeStore(), &fakeEngine{})

	_, err := s.Redact(context.Background(), "o", "ghost", validAreas(), "", "", "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRedact_OtherOwnersFile(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newFakeRM(&fakeAuditRepo{})
	store := newFakeStore()
	seedFile(t, m, store, "alice", "f", validPDF)
	s := newService(t, db, m, store, &fakeEngine{out: []byte("%PDF- r")})

	// Indistinguishable from a file that does not exist.
	_, err := s.Redact(context.Background(), "bob", "f", validAreas(), "", "", "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), "alice", "f", storage.VariantRedacted); !errors.Is(err, common.ErrNotFound) {
		t.Fatal("another owner's file must stay untouched")
	}
}

func TestRedact_EngineError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newFakeRM(&fakeAuditRepo{})
	store := newFakeStore()
	ctx := context.Background()
	seedFile(t, m, store, "o", "f", validPDF)

	applyErr := fmt.Errorf("%w: broken xref", common.ErrMalformedDocument)
	s := newService(t, db, m, store, &fakeEngine{applyErr: applyErr})

	_, err := s.Redact(ctx, "o", "f", validAreas(), "", "", "")
	if !errors.Is(err, common.ErrMalformedDocument) {
		t.Fatalf("want ErrMalformedDocument, got %v", err)
	}
	if _, err := store.Get(ctx, "o", "f", storage.VariantRedacted); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("failed redaction must not persist a redacted variant")
	}
}

func TestRedact_AppendFails_RemovesFreshVariant(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAuditRepo{appendErr: errBoom{}}
	m := newFakeRM(repo)
	store := newFakeStore()
	ctx := context.Background()
	seedFile(t, m, store, "o", "f", validPDF)

	s := newService(t, db, m, store, &fakeEngine{out: []byte("%PDF- redacted")})

	_, err := s.Redact(ctx, "o", "f", validAreas(), "", "", "")
	if err == nil || !strings.Contains(err.Error(), "recording redaction:") {
		t.Fatalf("want wrapped append error, got %v", err)
	}
	if _, err := store.Get(ctx, "o", "f", storage.VariantRedacted); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unaudited redacted variant must be removed")
	}
}

func TestRedact_AppendFails_RestoresPriorVariant(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAuditRepo{appendErr: errBoom{}}
	m := newFakeRM(repo)
	store := newFakeStore()
	ctx := context.Background()
	prior := []byte("%PDF- first pass")
	seedFile(t, m, store, "o", "f", validPDF)
	if err := store.Put(ctx, "o", "f", storage.VariantRedacted, prior); err != nil {
		t.Fatal(err)
	}

	s := newService(t, db, m, store, &fakeEngine{out: []byte("%PDF- second pass")})

	_, err := s.Redact(ctx, "o", "f", validAreas(), "", "", "")
	if err == nil {
		t.Fatal("want error")
	}
	got, gerr := store.Get(ctx, "o", "f", storage.VariantRedacted)
	if gerr != nil || !bytes.Equal(got, prior) {
		t.Fatalf("prior redacted variant must be restored, got %q err %v", got, gerr)
	}
}

func TestRedact_ExplicitReasonRecorded(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeAuditRepo{}
	m := newFakeRM(repo)
	store := newFakeStore()
	ctx := context.Background()
	seedFile(t, m, store, "o", "f", validPDF)

	s := newService(t, db, m, store, &fakeEngine{out: []byte("%PDF- r")})

	if _, err := s.Redact(ctx, "o", "f", validAreas(), "legal hold", "", ""); err != nil {
		t.Fatalf("Redact error: %v", err)
	}
	if repo.appended[0].Reason != "legal hold" {
		t.Fatalf("unexpected reason: %q", repo.appended[0].Reason)
	}
}

func TestRedact_PresignedDownloadURL(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	m := newFakeRM(&fakeAuditRepo{})
	store := &signingStore{fakeStore: newFakeStore(), url: "https://s3.example/presigned"}
	ctx := context.Background()
	seedFile(t, m, store.fakeStore, "o", "f", validPDF)

	s := newService(t, db, m, store, &fakeEngine{out: []byte("%PDF- r")})

	res, err := s.Redact(ctx, "o", "f", validAreas(), "", "", "")
	if err != nil {
		t.Fatalf("Redact error: %v", err)
	}
	if res.DownloadURL != "https://s3.example/presigned" {
		t.Fatalf("unexpected download URL: %s", res.DownloadURL)
	}
}

func TestDownload(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	m := newFakeRM(&fakeAuditRepo{})
	store := newFakeStore()
	ctx := context.Background()
	redacted := []byte("%PDF- redacted")
	seedFile(t, m, store, "o", "f", validPDF)

	s := newService(t, db, m, store, &fakeEngine{})

	t.Run("falls back to original", func(t *testing.T) {
		res, err := s.Download(ctx, "o", "f")
		if err != nil {
			t.Fatalf("Download error: %v", err)
		}
		if res.Variant != storage.VariantOriginal || !bytes.Equal(res.Bytes, validPDF) || res.FileName != "f.pdf" {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("prefers redacted", func(t *testing.T) {
		if err := store.Put(ctx, "o", "f", storage.VariantRedacted, redacted); err != nil {
			t.Fatal(err)
		}
		res, err := s.Download(ctx, "o", "f")
		if err != nil {
			t.Fatalf("Download error: %v", err)
		}
		if res.Variant != storage.VariantRedacted || !bytes.Equal(res.Bytes, redacted) || res.FileName != "redacted-f.pdf" {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("other owner denied", func(t *testing.T) {
		_, err := s.Download(ctx, "stranger", "f")
		if !errors.Is(err, common.ErrAccessDenied) {
			t.Fatalf("want ErrAccessDenied, got %v", err)
		}
	})

	t.Run("unregistered file denied", func(t *testing.T) {
		_, err := s.Download(ctx, "o", "ghost")
		if !errors.Is(err, common.ErrAccessDenied) {
			t.Fatalf("want ErrAccessDenied, got %v", err)
		}
	})

	t.Run("empty fileID", func(t *testing.T) {
		_, err := s.Download(ctx, "o", "")
		if !errors.Is(err, common.ErrInvalidInput) {
			t.Fatalf("want ErrInvalidInput, got %v", err)
		}
	})
}

func TestAudit(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repo := &fakeAuditRepo{selected: []*models.AuditEntry{{ID: "e2"}, {ID: "e1"}}}
	s := newService(t, db, newFakeRM(repo), newFakeStore(), &fakeEngine{})

	entries, err := s.Audit(context.Background(), "o", audit.Filter{FileID: "f", Action: models.ActionUploaded})
	if err != nil {
		t.Fatalf("Audit error: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "e2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if repo.gotOwner != "o" || repo.gotF.FileID != "f" || repo.gotF.Action != models.ActionUploaded {
		t.Fatalf("filter not passed through: owner=%q filter=%+v", repo.gotOwner, repo.gotF)
	}

	t.Run("missing owner", func(t *testing.T) {
		_, err := s.Audit(context.Background(), "", audit.Filter{})
		if !errors.Is(err, common.ErrInvalidInput) {
			t.Fatalf("want ErrInvalidInput, got %v", err)
		}
	})

	t.Run("repo error wrapped", func(t *testing.T) {
		s := newService(t, db, newFakeRM(&fakeAuditRepo{selErr: errBoom{}}), newFakeStore(), &fakeEngine{})
		_, err := s.Audit(context.Background(), "o", audit.Filter{})
		if err == nil || !strings.Contains(err.Error(), "querying audit trail:") {
			t.Fatalf("want wrapped error, got %v", err)
		}
	})
}

type fakeEngine struct {
	pages    int
	parseErr error

	out      []byte
	applyErr error
	gotAreas []models.RedactionArea
}

func (e *fakeEngine) PageCount(b []byte) (int, error) {
	if e.parseErr != nil {
		return 0, e.parseErr
	}
	return e.pages, nil
}

func (e *fakeEngine) Apply(b []byte, areas []models.RedactionArea) ([]byte, error) {
	if e.applyErr != nil {
		return nil, e.applyErr
	}
	e.gotAreas = areas
	return e.out, nil
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
