// internal/models/question.go
package models

// Option letters accepted as answers, in display order.
var OptionLetters = []string{"A", "B", "C", "D"}

type Question struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	QuestionText  string `json:"question_text" gorm:"not null"`
	OptionA       string `json:"option_a" gorm:"not null"`
	OptionB       string `json:"option_b" gorm:"not null"`
	OptionC       string `json:"option_c" gorm:"not null"`
	OptionD       string `json:"option_d" gorm:"not null"`
	CorrectOption string `json:"correct_option" gorm:"size:1;not null"`
}

// OptionText returns the text behind an option letter, or "" for anything
// other than A-D.
func (q Question) OptionText(letter string) string {
	switch letter {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}
