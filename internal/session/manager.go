// internal/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const CookieName = "quiz_session"

type ctxKey int

const (
	sidKey ctxKey = iota
	userKey
)

// Manager binds a browser to a session id through a signed cookie. The cookie
// carries only the id; all state lives in the Store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

func (m *Manager) Sign(sid string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": m.now().Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("session: invalid token claims")
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("session: missing sid claim")
	}
	return sid, nil
}

// Middleware makes sure every request carries a session id, issuing a fresh
// cookie when the presented one is missing, forged or expired.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(CookieName); err == nil {
			sid, _ = m.Parse(c.Value)
		}

		if sid == "" {
			sid = uuid.NewString()
			token, err := m.Sign(sid)
			if err != nil {
				http.Error(w, "Session unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.ttl.Seconds()),
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), sid)))
	})
}

func WithID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sidKey, sid)
}

// ID returns the session id placed by Manager.Middleware, or "".
func ID(ctx context.Context) string {
	sid, _ := ctx.Value(sidKey).(string)
	return sid
}
