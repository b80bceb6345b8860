package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/pkg/config"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

// SessionRecord is the server-side state behind the opaque cookie.
type SessionRecord struct {
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionStore interface {
	StoreSession(ctx context.Context, sessionID, payload string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, error)
}

// Session assigns every shopper an opaque session id in an HttpOnly
// cookie backed by a Redis record carrying the CSRF token. Requests
// with a stale or unknown cookie get a fresh session transparently.
func Session(cfg config.SessionConfig, store sessionStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID, record, fresh, err := resolveSession(ctx, cfg, store, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}
			if fresh {
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = WithSession(ctx, sessionID, record.CSRFToken)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSession(ctx context.Context, cfg config.SessionConfig, store sessionStore, r *http.Request) (string, *SessionRecord, bool, error) {
	if cookie, err := r.Cookie(cfg.CookieName); err == nil && cookie.Value != "" {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			payload, err := store.GetSession(ctx, cookie.Value)
			if err == nil {
				var record SessionRecord
				if decodeErr := json.Unmarshal([]byte(payload), &record); decodeErr == nil {
					return cookie.Value, &record, false, nil
				}
			} else if !errors.Is(err, redis.Nil) {
				return "", nil, false, err
			}
		}
	}

	sessionID := uuid.NewString()
	record := &SessionRecord{
		CSRFToken: newCSRFToken(),
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", nil, false, err
	}
	if err := store.StoreSession(ctx, sessionID, string(payload), cfg.TTL); err != nil {
		return "", nil, false, err
	}
	return sessionID, record, true, nil
}

func newCSRFToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
