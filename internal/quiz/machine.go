// internal/quiz/machine.go
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-modes/internal/models"
	"quiz-modes/internal/session"
)

// QuestionSource is the question half of the persistence collaborator.
// FindRandomQuestionExcluding returns (nil, nil) when every question has been
// excluded.
type QuestionSource interface {
	FindRandomQuestionExcluding(ctx context.Context, exclude []uint) (*models.Question, error)
}

// Recorder receives run lifecycle events, normally for metrics.
type Recorder interface {
	RunStarted(mode string)
	RunTerminated(mode, reason string)
	AnswerSubmitted(mode string, correct bool)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted(string)            {}
func (nopRecorder) RunTerminated(string, string) {}
func (nopRecorder) AnswerSubmitted(string, bool) {}

type Status int

const (
	// StatusQuestion: a question is on screen, possibly with feedback.
	StatusQuestion Status = iota
	// StatusTerminated: the run ended and its state is gone.
	StatusTerminated
	// StatusResync: the request referred to a question the session no longer
	// holds; the client should reload the quiz page.
	StatusResync
)

type Reason string

const (
	ReasonTimeUp   Reason = "Time's up!"
	ReasonGameOver Reason = "Game over!"
	ReasonFinished Reason = "finished all questions"
)

// Feedback messages that do not depend on the question.
const (
	FeedbackCorrect         = "Correct!"
	FeedbackSelectAnswer    = "Please select an answer."
	FeedbackSubmitFirst     = "Please submit your answer before going to the next question."
	FeedbackAlreadyAnswered = "You have already answered this question."
)

// Outcome is what one request produces for the presentation layer.
type Outcome struct {
	Status    Status
	Mode      Mode
	Question  *models.QuestionDTO
	Feedback  string
	Selected  string
	Remaining *int
	Score     int
	Reason    Reason
	// AskedIDs is only set on termination: the ids served during the run.
	AskedIDs []uint
}

// Request is one hit on the quiz endpoint.
type Request struct {
	Post   bool
	Mode   string
	Action string
	Answer string
	// Remaining is the client's countdown echo, nil when the form had none.
	Remaining *string
}

// Machine drives quiz runs. It assumes a single writer per session: the run
// is read, changed in memory and written back, so two overlapping requests
// for the same session can lose an update. Browsers wait for each response
// before posting again, which is the usage this is built for.
type Machine struct {
	store     session.Store
	questions QuestionSource
	recorder  Recorder
	log       *logrus.Entry
	now       func() time.Time
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(m *Machine) { m.recorder = r }
}

func WithLogger(log *logrus.Entry) Option {
	return func(m *Machine) { m.log = log }
}

func NewMachine(store session.Store, questions QuestionSource, opts ...Option) *Machine {
	m := &Machine{
		store:     store,
		questions: questions,
		recorder:  nopRecorder{},
		log:       logrus.NewEntry(logrus.StandardLogger()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle runs one request through the machine: start or resume, reconcile the
// rapid timer, apply the posted action, then serve a question.
func (m *Machine) Handle(ctx context.Context, sid string, req Request) (Outcome, error) {
	mode, ok := ParseMode(req.Mode)
	if !ok {
		mode = ModeStandard
	}

	run, err := m.StartOrResume(ctx, sid, mode)
	if err != nil {
		return Outcome{}, err
	}

	var remaining *int
	if run.Policy().Timed {
		var hint *string
		if req.Post {
			hint = req.Remaining
		}
		left, ended, err := m.ComputeRemaining(ctx, sid, run, hint)
		if err != nil {
			return Outcome{}, err
		}
		if ended != nil {
			return *ended, nil
		}
		remaining = &left
	}

	if req.Post {
		if run.Current == nil {
			return Outcome{Status: StatusResync, Mode: run.Mode}, nil
		}
		switch req.Action {
		case "submit":
			return m.SubmitAnswer(ctx, sid, run, req.Answer, remaining)
		case "next":
			return m.Advance(ctx, sid, run, req.Answer, remaining)
		}
		return m.display(run, "", req.Answer, remaining), nil
	}

	if run.Current != nil {
		return m.display(run, "", "", remaining), nil
	}
	return m.SelectNextQuestion(ctx, sid, run, remaining)
}

// StartOrResume returns the active run, creating one in mode if there is
// none. An existing run keeps the mode it was started with.
func (m *Machine) StartOrResume(ctx context.Context, sid string, mode Mode) (*Run, error) {
	run, err := loadRun(ctx, m.store, sid)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}

	run = &Run{Mode: mode, AskedIDs: []uint{}}
	if run.Policy().Timed {
		now := m.now()
		run.StartTime = &now
	}
	if err := saveRun(ctx, m.store, sid, run); err != nil {
		return nil, err
	}

	m.recorder.RunStarted(string(mode))
	m.log.WithFields(logrus.Fields{"sid": shortID(sid), "mode": mode}).Debug("quiz run started")
	return run, nil
}

// ComputeRemaining returns the seconds left in a timed run, never below zero.
// A hint from the client's countdown moves the start time so that exactly
// hint seconds remain now; a hint that is not a number counts as zero. The
// hint is trusted as sent, up to maxHint. At zero the run is terminated and the termination
// outcome is returned alongside.
func (m *Machine) ComputeRemaining(ctx context.Context, sid string, run *Run, hint *string) (int, *Outcome, error) {
	limit := run.Policy().TimeLimit
	now := m.now()

	if hint != nil {
		left := parseHint(*hint)
		start := now.Add(-(limit - time.Duration(left)*time.Second))
		run.StartTime = &start
		if err := session.SetJSON(ctx, m.store, sid, keyStartTime, start); err != nil {
			return 0, nil, fmt.Errorf("save start time: %w", err)
		}
	}

	left := remainingAt(run, limit, now)
	if left > 0 {
		return left, nil, nil
	}

	out, err := m.Terminate(ctx, sid, run, ReasonTimeUp)
	if err != nil {
		return 0, nil, err
	}
	return 0, &out, nil
}

// maxHint bounds a client hint so the start-time arithmetic cannot overflow.
const maxHint = math.MaxInt32

func parseHint(s string) int {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	switch {
	case n > maxHint:
		return maxHint
	case n < -maxHint:
		return -maxHint
	}
	return int(n)
}

func remainingAt(run *Run, limit time.Duration, now time.Time) int {
	start := now
	if run.StartTime != nil {
		start = *run.StartTime
	}
	elapsed := int(now.Sub(start) / time.Second)
	left := int(limit/time.Second) - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// SubmitAnswer grades selected against the cached correct option.
func (m *Machine) SubmitAnswer(ctx context.Context, sid string, run *Run, selected string, remaining *int) (Outcome, error) {
	if run.Current == nil {
		return Outcome{Status: StatusResync, Mode: run.Mode}, nil
	}
	if selected == "" {
		return m.display(run, FeedbackSelectAnswer, "", remaining), nil
	}
	if run.Submitted {
		return m.display(run, FeedbackAlreadyAnswered, selected, remaining), nil
	}

	run.Submitted = true
	correct := run.Current.CorrectOption

	var feedback string
	if selected == correct {
		run.Score++
		feedback = FeedbackCorrect
		m.recorder.AnswerSubmitted(string(run.Mode), true)
	} else {
		m.recorder.AnswerSubmitted(string(run.Mode), false)
		if run.Policy().WrongAnswerEnds {
			return m.Terminate(ctx, sid, run, ReasonGameOver)
		}
		feedback = fmt.Sprintf("Incorrect! Correct option was %s) %s", correct, run.Current.Question.OptionText(correct))
	}

	if err := saveRun(ctx, m.store, sid, run); err != nil {
		return Outcome{}, err
	}
	return m.display(run, feedback, selected, remaining), nil
}

// Advance moves past an answered question. Until the current question has
// been submitted it only repeats the question with a prompt.
func (m *Machine) Advance(ctx context.Context, sid string, run *Run, selected string, remaining *int) (Outcome, error) {
	if run.Current == nil {
		return Outcome{Status: StatusResync, Mode: run.Mode}, nil
	}
	if !run.Submitted {
		return m.display(run, FeedbackSubmitFirst, selected, remaining), nil
	}

	if !run.asked(run.Current.Question.ID) {
		run.AskedIDs = append(run.AskedIDs, run.Current.Question.ID)
	}
	run.Submitted = false
	run.Current = nil

	return m.SelectNextQuestion(ctx, sid, run, remaining)
}

// SelectNextQuestion draws a random question not yet served in this run, or
// ends the run when none is left.
func (m *Machine) SelectNextQuestion(ctx context.Context, sid string, run *Run, remaining *int) (Outcome, error) {
	q, err := m.questions.FindRandomQuestionExcluding(ctx, run.AskedIDs)
	if err != nil {
		return Outcome{}, fmt.Errorf("select question: %w", err)
	}
	if q == nil {
		return m.Terminate(ctx, sid, run, ReasonFinished)
	}

	run.Current = &CurrentQuestion{Question: *q, CorrectOption: q.CorrectOption}
	run.Submitted = false
	if err := saveRun(ctx, m.store, sid, run); err != nil {
		return Outcome{}, err
	}

	m.log.WithFields(logrus.Fields{"sid": shortID(sid), "question_id": q.ID}).Debug("question served")
	return m.display(run, "", "", remaining), nil
}

// Terminate clears every run key in one call and reports the final score.
func (m *Machine) Terminate(ctx context.Context, sid string, run *Run, reason Reason) (Outcome, error) {
	if err := clearRun(ctx, m.store, sid); err != nil {
		return Outcome{}, err
	}

	m.recorder.RunTerminated(string(run.Mode), string(reason))
	m.log.WithFields(logrus.Fields{
		"sid":    shortID(sid),
		"mode":   run.Mode,
		"reason": reason,
		"score":  run.Score,
	}).Debug("quiz run terminated")

	return Outcome{
		Status:   StatusTerminated,
		Mode:     run.Mode,
		Feedback: TerminationFeedback(reason, run.Score),
		Score:    run.Score,
		Reason:   reason,
		AskedIDs: append([]uint(nil), run.AskedIDs...),
	}, nil
}

func TerminationFeedback(reason Reason, score int) string {
	if reason == ReasonFinished {
		return fmt.Sprintf("You've finished all questions! Score: %d", score)
	}
	return fmt.Sprintf("%s Score: %d", reason, score)
}

// SwitchMode drops the active run, if any, keeping the login.
func (m *Machine) SwitchMode(ctx context.Context, sid string) error {
	return clearRun(ctx, m.store, sid)
}

// Peek reports the seconds left in an active timed run without touching the
// session. active is false when there is no timed run.
func (m *Machine) Peek(ctx context.Context, sid string) (remaining int, active bool, err error) {
	run, err := loadRun(ctx, m.store, sid)
	if err != nil || run == nil {
		return 0, false, err
	}
	policy := run.Policy()
	if !policy.Timed {
		return 0, false, nil
	}
	return remainingAt(run, policy.TimeLimit, m.now()), true, nil
}

func (m *Machine) display(run *Run, feedback, selected string, remaining *int) Outcome {
	out := Outcome{
		Status:    StatusQuestion,
		Mode:      run.Mode,
		Feedback:  feedback,
		Selected:  selected,
		Remaining: remaining,
		Score:     run.Score,
	}
	if run.Current != nil {
		dto := run.Current.Question.ToDTO()
		out.Question = &dto
	}
	return out
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
