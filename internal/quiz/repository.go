// internal/quiz/repository.go
package quiz

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"quiz-modes/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindRandomQuestionExcluding picks one question uniformly at random among
// those whose id is not in exclude. It returns (nil, nil) when none is left.
func (r *Repository) FindRandomQuestionExcluding(ctx context.Context, exclude []uint) (*models.Question, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{})
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var question models.Question
	err := query.Order("RANDOM()").Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find random question: %w", err)
	}
	return &question, nil
}

func (r *Repository) ListAllQuestions(ctx context.Context) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).Order("id").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}
