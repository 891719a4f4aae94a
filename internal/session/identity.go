// internal/session/identity.go
package session

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
)

// User is the authenticated identity bound to a session.
type User struct {
	ID       uint
	Username string
}

func SetIdentity(ctx context.Context, store Store, sid string, user User) error {
	if err := SetJSON(ctx, store, sid, KeyUserID, user.ID); err != nil {
		return err
	}
	return SetJSON(ctx, store, sid, KeyUsername, user.Username)
}

// Identity reports the user bound to sid. ok is false when nobody is
// logged in.
func Identity(ctx context.Context, store Store, sid string) (User, bool, error) {
	var user User
	ok, err := GetJSON(ctx, store, sid, KeyUserID, &user.ID)
	if err != nil || !ok {
		return User{}, false, err
	}
	if _, err := GetJSON(ctx, store, sid, KeyUsername, &user.Username); err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

// RequireUser redirects anonymous sessions to /login and exposes the user to
// downstream handlers through UserFrom.
func RequireUser(store Store, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok, err := Identity(r.Context(), store, ID(r.Context()))
			if err != nil {
				log.WithError(err).Error("session lookup failed")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func UserFrom(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}

// WithUser is what RequireUser does to the context; handlers under test use
// it directly.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
