// internal/quiz/mode.go
package quiz

import "time"

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeRapid    Mode = "rapid"
	ModeSurvival Mode = "survival"
)

// RapidTimeLimit is the length of a rapid run.
const RapidTimeLimit = 300 * time.Second

// ParseMode accepts only the three known modes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeStandard, ModeRapid, ModeSurvival:
		return Mode(s), true
	}
	return "", false
}

// Policy is everything that differs between modes. The machine never
// switches on Mode directly.
type Policy struct {
	Timed           bool
	TimeLimit       time.Duration
	WrongAnswerEnds bool
}

func PolicyFor(m Mode) Policy {
	switch m {
	case ModeRapid:
		return Policy{Timed: true, TimeLimit: RapidTimeLimit}
	case ModeSurvival:
		return Policy{WrongAnswerEnds: true}
	default:
		return Policy{}
	}
}
