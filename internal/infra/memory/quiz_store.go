package memory

import (
	"context"
	"sort"
	"sync"

	"quizdeck-service/internal/domain"
)

// QuizStore is an in-memory quiz backing store implementing both
// app.QuizRepository and app.QuizWriter (useful for tests and the
// no-Postgres dev mode).
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

// NewSeededQuizStore preloads quizzes, keyed by id.
func NewSeededQuizStore(quizzes map[string]domain.Quiz) *QuizStore {
	store := NewQuizStore()
	for id, quiz := range quizzes {
		quiz.ID = id
		store.quizzes[id] = quiz
	}
	return store
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *QuizStore) QuizzesByAuthor(_ context.Context, userID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.CreatedByID == userID {
			out = append(out, quiz)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
