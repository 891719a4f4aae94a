// internal/quiz/run.go
package quiz

import (
	"context"
	"fmt"
	"time"

	"quiz-modes/internal/models"
	"quiz-modes/internal/session"
)

// Session keys owned by a run. Identity keys are never in this list.
const (
	keyStarted         = "started"
	keyMode            = "mode"
	keyAskedIDs        = "asked_ids"
	keyScore           = "score"
	keyStartTime       = "start_time"
	keyCorrectOption   = "correct_option"
	keyCurrentQuestion = "current_question"
	keySubmitted       = "submitted"
)

var runKeys = []string{
	keyStarted,
	keyMode,
	keyAskedIDs,
	keyScore,
	keyStartTime,
	keyCorrectOption,
	keyCurrentQuestion,
	keySubmitted,
}

// CurrentQuestion is the question on screen together with its cached answer.
// Keeping both behind one pointer means they are present or absent together.
type CurrentQuestion struct {
	Question      models.Question
	CorrectOption string
}

// Run is one attempt at a mode, from start to termination.
type Run struct {
	Mode      Mode
	AskedIDs  []uint
	Score     int
	StartTime *time.Time
	Current   *CurrentQuestion
	Submitted bool
}

func (r *Run) Policy() Policy {
	return PolicyFor(r.Mode)
}

func (r *Run) asked(id uint) bool {
	for _, a := range r.AskedIDs {
		if a == id {
			return true
		}
	}
	return false
}

// loadRun returns nil when the session has no active run.
func loadRun(ctx context.Context, store session.Store, sid string) (*Run, error) {
	var started bool
	ok, err := session.GetJSON(ctx, store, sid, keyStarted, &started)
	if err != nil {
		return nil, err
	}
	if !ok || !started {
		return nil, nil
	}

	run := &Run{Mode: ModeStandard}
	var mode string
	if _, err := session.GetJSON(ctx, store, sid, keyMode, &mode); err != nil {
		return nil, err
	}
	if m, ok := ParseMode(mode); ok {
		run.Mode = m
	}

	if _, err := session.GetJSON(ctx, store, sid, keyAskedIDs, &run.AskedIDs); err != nil {
		return nil, err
	}
	if _, err := session.GetJSON(ctx, store, sid, keyScore, &run.Score); err != nil {
		return nil, err
	}
	if _, err := session.GetJSON(ctx, store, sid, keySubmitted, &run.Submitted); err != nil {
		return nil, err
	}

	var start time.Time
	ok, err = session.GetJSON(ctx, store, sid, keyStartTime, &start)
	if err != nil {
		return nil, err
	}
	if ok {
		run.StartTime = &start
	}

	var question models.Question
	hasQuestion, err := session.GetJSON(ctx, store, sid, keyCurrentQuestion, &question)
	if err != nil {
		return nil, err
	}
	var correct string
	hasCorrect, err := session.GetJSON(ctx, store, sid, keyCorrectOption, &correct)
	if err != nil {
		return nil, err
	}
	if hasQuestion && hasCorrect {
		run.Current = &CurrentQuestion{Question: question, CorrectOption: correct}
	}

	return run, nil
}

type entry struct {
	key   string
	value interface{}
}

func saveRun(ctx context.Context, store session.Store, sid string, run *Run) error {
	asked := run.AskedIDs
	if asked == nil {
		asked = []uint{}
	}

	entries := []entry{
		{keyStarted, true},
		{keyMode, run.Mode},
		{keyAskedIDs, asked},
		{keyScore, run.Score},
		{keySubmitted, run.Submitted},
	}
	var stale []string

	if run.StartTime != nil {
		entries = append(entries, entry{keyStartTime, run.StartTime})
	} else {
		stale = append(stale, keyStartTime)
	}
	if run.Current != nil {
		entries = append(entries,
			entry{keyCurrentQuestion, run.Current.Question},
			entry{keyCorrectOption, run.Current.CorrectOption},
		)
	} else {
		stale = append(stale, keyCurrentQuestion, keyCorrectOption)
	}

	for _, e := range entries {
		if err := session.SetJSON(ctx, store, sid, e.key, e.value); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	if len(stale) > 0 {
		if err := store.ClearKeys(ctx, sid, stale...); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	return nil
}

func clearRun(ctx context.Context, store session.Store, sid string) error {
	if err := store.ClearKeys(ctx, sid, runKeys...); err != nil {
		return fmt.Errorf("clear run: %w", err)
	}
	return nil
}
