package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var questionColumns = []string{"id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_option"}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_FindRandomQuestionExcluding(t *testing.T) {
	ctx := context.Background()

	t.Run("no exclusions", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "questions" ORDER BY RANDOM\(\) LIMIT`).
			WillReturnRows(sqlmock.NewRows(questionColumns).
				AddRow(3, "Capital of France?", "Rome", "Paris", "Oslo", "Bern", "B"))

		q, err := repo.FindRandomQuestionExcluding(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, uint(3), q.ID)
		assert.Equal(t, "B", q.CorrectOption)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("excludes asked ids", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "questions" WHERE id NOT IN \(\$1,\$2\) ORDER BY RANDOM\(\) LIMIT`).
			WillReturnRows(sqlmock.NewRows(questionColumns).
				AddRow(5, "q", "a", "b", "c", "d", "D"))

		q, err := repo.FindRandomQuestionExcluding(ctx, []uint{1, 2})
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, uint(5), q.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none left", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "questions"`).
			WillReturnRows(sqlmock.NewRows(questionColumns))

		q, err := repo.FindRandomQuestionExcluding(ctx, []uint{1})
		require.NoError(t, err)
		assert.Nil(t, q)
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "questions"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindRandomQuestionExcluding(ctx, nil)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestRepository_ListAllQuestions(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "questions" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow(1, "q1", "a", "b", "c", "d", "A").
			AddRow(2, "q2", "a", "b", "c", "d", "C"))

	questions, err := repo.ListAllQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "q2", questions[1].QuestionText)
	assert.NoError(t, mock.ExpectationsWereMet())
}
