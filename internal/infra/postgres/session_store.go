package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"quizdeck-service/internal/domain"
)

// SessionStore is the bun-backed implementation of app.SessionStore. Both
// race-sensitive invariants live in the schema — the partial unique index on
// open (user_id, quiz_id) pairs and the unique (session_id, question_id)
// constraint — so concurrent requests are serialized by the database, not by
// application-level check-then-act.
type SessionStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) StartOrResume(ctx context.Context, userID, quizID string) (domain.QuizSession, error) {
	session := domain.QuizSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: s.now(),
	}
	res, err := s.db.NewInsert().
		Model(&session).
		On("CONFLICT (user_id, quiz_id) WHERE ended_at IS NULL DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("insert session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return session, nil
	}

	// Lost the race (or a previous attempt is still open): resume it.
	existing := new(domain.QuizSession)
	err = s.db.NewSelect().
		Model(existing).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Where("ended_at IS NULL").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("select open session: %w", err)
	}
	return *existing, nil
}

func (s *SessionStore) GetForUser(ctx context.Context, sessionID, userID string) (domain.QuizSession, error) {
	session := new(domain.QuizSession)
	err := s.db.NewSelect().
		Model(session).
		Where("id = ?", sessionID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("select session: %w", err)
	}
	return *session, nil
}

func (s *SessionStore) SetCurrentQuestion(ctx context.Context, sessionID, questionID string) (domain.QuizSession, error) {
	session := new(domain.QuizSession)
	res, err := s.db.NewUpdate().
		Model(session).
		Set("current_question_id = ?", questionID).
		Where("id = ?", sessionID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("update current question: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return *session, nil
}

func (s *SessionStore) RecordSubmission(ctx context.Context, answer domain.QuizSessionAnswer, endedAt *time.Time) (domain.QuizSession, domain.QuizSessionAnswer, error) {
	answer.ID = uuid.NewString()
	answer.CreatedAt = s.now()

	session := new(domain.QuizSession)
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(&answer).
			On("CONFLICT (session_id, question_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert session answer: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrAlreadyAnswered
		}

		// Score moves SQL-side so a concurrent navigation update cannot
		// clobber it, and ended_at is write-once via COALESCE.
		increment := 0
		if answer.IsCorrect {
			increment = 1
		}
		update := tx.NewUpdate().
			Model(session).
			Set("score = score + ?", increment).
			Where("id = ?", answer.SessionID).
			Returning("*")
		if endedAt != nil {
			update = update.Set("ended_at = COALESCE(ended_at, ?)", endedAt)
		}
		res, err = update.Exec(ctx)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrSessionNotFound
		}
		return nil
	})
	if err != nil {
		return domain.QuizSession{}, domain.QuizSessionAnswer{}, err
	}
	return *session, answer, nil
}

func (s *SessionStore) Answers(ctx context.Context, sessionID string) ([]domain.QuizSessionAnswer, error) {
	answers := make([]domain.QuizSessionAnswer, 0)
	err := s.db.NewSelect().
		Model(&answers).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select session answers: %w", err)
	}
	return answers, nil
}

func (s *SessionStore) CompletedForUser(ctx context.Context, userID string) ([]domain.QuizSession, error) {
	sessions := make([]domain.QuizSession, 0)
	err := s.db.NewSelect().
		Model(&sessions).
		Where("user_id = ?", userID).
		Where("ended_at IS NOT NULL").
		Order("ended_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select completed sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionStore) CountByQuiz(ctx context.Context, quizID string) (int, error) {
	count, err := s.db.NewSelect().
		Model((*domain.QuizSession)(nil)).
		Where("quiz_id = ?", quizID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}
