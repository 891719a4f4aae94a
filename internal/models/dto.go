// internal/models/dto.go
package models

// QuestionDTO is what the quiz page gets to see. The correct option is
// deliberately absent.
type QuestionDTO struct {
	ID      uint        `json:"id"`
	Text    string      `json:"text"`
	Options []OptionDTO `json:"options"`
}

type OptionDTO struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (q Question) ToDTO() QuestionDTO {
	options := make([]OptionDTO, len(OptionLetters))
	for i, letter := range OptionLetters {
		options[i] = OptionDTO{
			ID:   letter,
			Text: q.OptionText(letter),
		}
	}

	return QuestionDTO{
		ID:      q.ID,
		Text:    q.QuestionText,
		Options: options,
	}
}
