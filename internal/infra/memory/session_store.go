package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizdeck-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. The
// single mutex serializes every mutation, which gives the same atomicity the
// Postgres store gets from its unique indexes: concurrent StartOrResume calls
// converge on one session and a double submit loses deterministically.
type SessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]*domain.QuizSession
	answers  map[string][]domain.QuizSessionAnswer
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithClock(time.Now)
}

// NewSessionStoreWithClock allows deterministic timestamps in tests.
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	return &SessionStore{
		now:      now,
		sessions: make(map[string]*domain.QuizSession),
		answers:  make(map[string][]domain.QuizSessionAnswer),
	}
}

func (s *SessionStore) StartOrResume(_ context.Context, userID, quizID string) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.UserID == userID && session.QuizID == quizID && session.EndedAt == nil {
			return *session, nil
		}
	}

	session := &domain.QuizSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: s.now(),
	}
	s.sessions[session.ID] = session
	return *session, nil
}

func (s *SessionStore) GetForUser(_ context.Context, sessionID, userID string) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return *session, nil
}

func (s *SessionStore) SetCurrentQuestion(_ context.Context, sessionID, questionID string) (domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	session.CurrentQuestionID = questionID
	return *session, nil
}

func (s *SessionStore) RecordSubmission(_ context.Context, answer domain.QuizSessionAnswer, endedAt *time.Time) (domain.QuizSession, domain.QuizSessionAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[answer.SessionID]
	if !ok {
		return domain.QuizSession{}, domain.QuizSessionAnswer{}, domain.ErrSessionNotFound
	}
	for _, existing := range s.answers[answer.SessionID] {
		if existing.QuestionID == answer.QuestionID {
			return domain.QuizSession{}, domain.QuizSessionAnswer{}, domain.ErrAlreadyAnswered
		}
	}

	answer.ID = uuid.NewString()
	answer.CreatedAt = s.now()
	s.answers[answer.SessionID] = append(s.answers[answer.SessionID], answer)

	if answer.IsCorrect {
		session.Score++
	}
	if endedAt != nil && session.EndedAt == nil {
		t := *endedAt
		session.EndedAt = &t
	}
	return *session, answer, nil
}

func (s *SessionStore) Answers(_ context.Context, sessionID string) ([]domain.QuizSessionAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.answers[sessionID]
	out := make([]domain.QuizSessionAnswer, len(log))
	copy(out, log)
	return out, nil
}

func (s *SessionStore) CompletedForUser(_ context.Context, userID string) ([]domain.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.QuizSession
	for _, session := range s.sessions {
		if session.UserID == userID && session.EndedAt != nil {
			out = append(out, *session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndedAt.After(*out[j].EndedAt)
	})
	return out, nil
}

func (s *SessionStore) CountByQuiz(_ context.Context, quizID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, session := range s.sessions {
		if session.QuizID == quizID {
			count++
		}
	}
	return count, nil
}
