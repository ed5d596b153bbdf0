package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"quizdeck-service/internal/domain"
)

// QuizStore persists authored quizzes with bun, implementing app.QuizWriter.
type QuizStore struct {
	db *bun.DB
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

// CreateQuiz inserts the whole aggregate in one transaction. The unique
// (quiz_id, ord) and (question_id, answer) constraints back up the
// service-level validation.
func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&quiz).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		if len(quiz.Questions) > 0 {
			if _, err := tx.NewInsert().Model(&quiz.Questions).Exec(ctx); err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		for _, question := range quiz.Questions {
			if len(question.Answers) == 0 {
				continue
			}
			if _, err := tx.NewInsert().Model(&question.Answers).Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *QuizStore) QuizzesByAuthor(ctx context.Context, userID string) ([]domain.Quiz, error) {
	quizzes := make([]domain.Quiz, 0)
	err := s.db.NewSelect().
		Model(&quizzes).
		Relation("Questions").
		Where("q.created_by = ?", userID).
		Order("q.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quizzes by author: %w", err)
	}
	return quizzes, nil
}
