package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/server/auth"
)

type ctxKey string

const ownerIDKey ctxKey = "ownerID"

// withSession guarantees every request carries an owner identity. A valid
// session cookie is reused; anything else (absent, expired, tampered) gets a
// freshly minted anonymous owner and a new cookie. There is no login: the
// cookie is the identity.
func (s *HTTPServer) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ownerID string

		if c, err := r.Cookie(common.SessionCookieName); err == nil {
			if id, err := auth.GetOwnerIDFromToken(c.Value, s.jwtSecret); err == nil {
				ownerID = id
			}
		}

		if ownerID == "" {
			ownerID = uuid.NewString()
			token, err := auth.GenerateToken(ownerID, s.jwtSecret, s.sessionValidity)
			if err != nil {
				s.logger.Error(r.Context(), "minting session token failed", "error", err.Error())
				writeError(w, common.ErrInternal)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     common.SessionCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(s.sessionValidity.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			s.logger.Info(r.Context(), "created new user session", "owner", ownerID)
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next(w, r.WithContext(ctx))
	}
}

func ownerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDKey).(string)
	return id
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
