// internal/quiz/handler.go
package quiz

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"quiz-modes/internal/models"
	"quiz-modes/internal/session"
	"quiz-modes/internal/web"
)

type QuestionLister interface {
	ListAllQuestions(ctx context.Context) ([]models.Question, error)
}

type Handler struct {
	machine   *Machine
	questions QuestionLister
	render    web.Renderer
	log       *logrus.Entry
}

func NewHandler(machine *Machine, questions QuestionLister, render web.Renderer, log *logrus.Entry) *Handler {
	return &Handler{
		machine:   machine,
		questions: questions,
		render:    render,
		log:       log,
	}
}

// Dashboard shows the mode picker. Picking a mode drops whatever run the
// session had, so nothing carries over between modes.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if err := h.machine.SwitchMode(r.Context(), session.ID(r.Context())); err != nil {
			h.fail(w, err, "switch mode")
			return
		}
		if mode, ok := ParseMode(r.PostForm.Get("mode")); ok {
			http.Redirect(w, r, quizURL(mode), http.StatusSeeOther)
			return
		}
	}

	h.page(w, "dashboard", web.Data{})
}

func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	req := Request{Mode: r.URL.Query().Get("mode")}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		req.Post = true
		req.Mode = r.PostForm.Get("mode")
		req.Action = r.PostForm.Get("action")
		req.Answer = r.PostForm.Get("answer")
		if values, ok := r.PostForm["remaining"]; ok && len(values) > 0 {
			req.Remaining = &values[0]
		}
	}

	out, err := h.machine.Handle(r.Context(), session.ID(r.Context()), req)
	if err != nil {
		h.fail(w, err, "quiz request")
		return
	}

	if out.Status == StatusResync {
		http.Redirect(w, r, quizURL(out.Mode), http.StatusSeeOther)
		return
	}

	data := web.Data{
		"mode":     string(out.Mode),
		"question": out.Question,
		"feedback": out.Feedback,
		"selected": out.Selected,
		"score":    out.Score,
	}
	if out.Remaining != nil {
		data["remaining"] = *out.Remaining
	}
	h.page(w, "quiz", data)
}

func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.ListAllQuestions(r.Context())
	if err != nil {
		h.fail(w, err, "list questions")
		return
	}
	h.page(w, "questions", web.Data{"questions": questions})
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

func quizURL(mode Mode) string {
	return "/quiz?mode=" + url.QueryEscape(string(mode))
}
