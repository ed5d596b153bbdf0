package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizdeck-service/internal/domain"
)

// QuizLoader reads quiz aggregates from Postgres: the quiz row plus its
// questions and answers, ordered by (ord, id) so traversal is deterministic
// even over legacy data with duplicate ord values.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx, `
		SELECT id, title, coalesce(description, ''), category, difficulty,
		       coalesce(image_url, ''), coalesce(created_by, ''), created_at, updated_at
		FROM quizzes WHERE id = $1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.Category, &quiz.Difficulty,
			&quiz.ImageURL, &quiz.CreatedByID, &quiz.CreatedAt, &quiz.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, quiz_id, prompt, ord, created_at, updated_at
		FROM quiz_questions WHERE quiz_id = $1 ORDER BY ord, id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Question)
	for rows.Next() {
		question := new(domain.Question)
		if err := rows.Scan(&question.ID, &question.QuizID, &question.Prompt, &question.Ord,
			&question.CreatedAt, &question.UpdatedAt); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		quiz.Questions = append(quiz.Questions, question)
		byID[question.ID] = question
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("iterate questions: %w", err)
	}

	answerRows, err := l.pool.Query(ctx, `
		SELECT a.id, a.question_id, a.answer, a.ord, a.is_correct,
		       coalesce(a.explanation, ''), a.created_at
		FROM quiz_answers a
		JOIN quiz_questions qq ON qq.id = a.question_id
		WHERE qq.quiz_id = $1 ORDER BY a.ord, a.id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		answer := new(domain.Answer)
		if err := answerRows.Scan(&answer.ID, &answer.QuestionID, &answer.Text, &answer.Ord,
			&answer.IsCorrect, &answer.Explanation, &answer.CreatedAt); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan answer: %w", err)
		}
		if question, ok := byID[answer.QuestionID]; ok {
			question.Answers = append(question.Answers, answer)
		}
	}
	if err := answerRows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("iterate answers: %w", err)
	}

	return quiz, nil
}
