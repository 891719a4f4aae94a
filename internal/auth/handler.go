// internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"quiz-modes/internal/session"
	"quiz-modes/internal/web"
)

type Handler struct {
	service *Service
	store   session.Store
	render  web.Renderer
	log     *logrus.Entry
}

func NewHandler(service *Service, store session.Store, render web.Renderer, log *logrus.Entry) *Handler {
	return &Handler{
		service: service,
		store:   store,
		render:  render,
		log:     log,
	}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.page(w, "index", web.Data{})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.page(w, "login", web.Data{})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	username := r.PostForm.Get("username")
	user, err := h.service.Login(r.Context(), username, r.PostForm.Get("password"))
	if IsValidation(err) {
		data := web.Data{"error": Message(err)}
		if !errors.Is(err, ErrCredentialsRequired) {
			data["username"] = username
		}
		h.page(w, "login", data)
		return
	}
	if err != nil {
		h.fail(w, err, "login")
		return
	}

	err = session.SetIdentity(r.Context(), h.store, session.ID(r.Context()), session.User{
		ID:       user.ID,
		Username: user.Username,
	})
	if err != nil {
		h.fail(w, err, "store identity")
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.page(w, "register", web.Data{})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	in := RegisterInput{
		Fullname:        r.PostForm.Get("fullname"),
		Username:        r.PostForm.Get("username"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}

	_, err := h.service.Register(r.Context(), in)
	if IsValidation(err) {
		form := in.Retained(err)
		h.page(w, "register", web.Data{
			"error":    Message(err),
			"fullname": form.Fullname,
			"username": form.Username,
			"email":    form.Email,
		})
		return
	}
	if err != nil {
		h.fail(w, err, "register")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	h.page(w, "settings", web.Data{})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.page(w, "change_password", web.Data{})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, _ := session.UserFrom(r.Context())
	err := h.service.ChangePassword(r.Context(), user.ID,
		r.PostForm.Get("current_password"),
		r.PostForm.Get("new_password"),
		r.PostForm.Get("confirm_password"),
	)
	switch {
	case errors.Is(err, ErrUserNotFound):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case IsValidation(err):
		h.page(w, "change_password", web.Data{"error": Message(err)})
	case err != nil:
		h.fail(w, err, "change password")
	default:
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
	}
}

// DeleteAccount removes the user and then always wipes the session.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFrom(r.Context())
	deleteErr := h.service.DeleteAccount(r.Context(), user.ID)

	if err := h.store.ClearAll(r.Context(), session.ID(r.Context())); err != nil {
		h.fail(w, err, "clear session")
		return
	}
	if deleteErr != nil {
		h.fail(w, deleteErr, "delete account")
		return
	}
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context(), session.ID(r.Context())); err != nil {
		h.fail(w, err, "logout")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	current, _ := session.UserFrom(r.Context())
	user, err := h.service.Profile(r.Context(), current.ID)
	if errors.Is(err, ErrUserNotFound) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.fail(w, err, "load profile")
		return
	}

	h.page(w, "profile", web.Data{
		"user":     user,
		"username": user.Username,
		"fullname": user.Fullname,
		"email":    user.Email,
	})
}

func (h *Handler) page(w http.ResponseWriter, name string, data web.Data) {
	if err := web.HTML(w, h.render, name, data); err != nil {
		h.log.WithError(err).WithField("page", name).Error("render failed")
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error, op string) {
	h.log.WithError(err).Error(op + " failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
