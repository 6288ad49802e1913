// Package httpapi exposes the redaction service over HTTP. It owns the
// routes, the anonymous session cookie, and the mapping of service errors to
// status codes. All business rules live in the services package.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/securedoc/internal/logging"
	"github.com/dmitrijs2005/securedoc/internal/server/models"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/audit"
	"github.com/dmitrijs2005/securedoc/internal/server/services"
)

// RedactionService is the business surface the handlers call. Implemented by
// services.RedactionService.
type RedactionService interface {
	Upload(ctx context.Context, ownerID string, b []byte, declaredName, declaredMIME, clientIP, userAgent string) (*services.UploadResult, error)
	Redact(ctx context.Context, ownerID, fileID string, areas []models.RedactionArea, reason, clientIP, userAgent string) (*services.RedactResult, error)
	Download(ctx context.Context, ownerID, fileID string) (*services.DownloadResult, error)
	Audit(ctx context.Context, ownerID string, f audit.Filter) ([]*models.AuditEntry, error)
}

type HTTPServer struct {
	address         string
	service         RedactionService
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
	maxUploadBytes  int64
}

func NewHTTPServer(a string, l logging.Logger, svc RedactionService, secretKey string,
	sessionValidity time.Duration, maxUploadBytes int64) (*HTTPServer, error) {
	return &HTTPServer{
		address:         a,
		logger:          l.With("module", "http_server"),
		service:         svc,
		jwtSecret:       []byte(secretKey),
		sessionValidity: sessionValidity,
		maxUploadBytes:  maxUploadBytes,
	}, nil
}

// Handler builds the route table. Session-scoped routes go through the
// cookie middleware; health and root do not.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/redaction/upload", s.withSession(s.handleUpload))
	mux.HandleFunc("POST /api/redaction/redact", s.withSession(s.handleRedact))
	mux.HandleFunc("GET /api/redaction/download/{fileID}", s.withSession(s.handleDownload))
	mux.HandleFunc("GET /api/redaction/audit", s.withSession(s.handleAudit))
	mux.HandleFunc("GET /api/redaction/audit/{fileID}", s.withSession(s.handleAudit))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
