package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	validator "gopkg.in/go-playground/validator.v9"

	"quizdeck-service/internal/domain"
)

// SessionStore is the durable record of quiz attempts. Implementations must
// enforce two invariants atomically at the storage layer: at most one open
// session per (user, quiz), and at most one answer record per
// (session, question) — check-then-insert in application code is not enough
// to close the double-submit race.
type SessionStore interface {
	// StartOrResume returns the caller's open session for the quiz,
	// creating one if none exists. Concurrent calls must converge on a
	// single session.
	StartOrResume(ctx context.Context, userID, quizID string) (domain.QuizSession, error)
	// GetForUser loads a session only if it belongs to userID; a foreign
	// session reports domain.ErrSessionNotFound rather than leaking its
	// existence.
	GetForUser(ctx context.Context, sessionID, userID string) (domain.QuizSession, error)
	// SetCurrentQuestion moves the session's position pointer.
	SetCurrentQuestion(ctx context.Context, sessionID, questionID string) (domain.QuizSession, error)
	// RecordSubmission appends the answer record, bumps the score when the
	// answer was correct and stamps endedAt when non-nil, all in one
	// transaction. A duplicate (session, question) pair reports
	// domain.ErrAlreadyAnswered and leaves the session untouched.
	RecordSubmission(ctx context.Context, answer domain.QuizSessionAnswer, endedAt *time.Time) (domain.QuizSession, domain.QuizSessionAnswer, error)
	// Answers returns the session's full submission log.
	Answers(ctx context.Context, sessionID string) ([]domain.QuizSessionAnswer, error)
	// CompletedForUser lists the caller's closed sessions, newest first.
	CompletedForUser(ctx context.Context, userID string) ([]domain.QuizSession, error)
	// CountByQuiz counts sessions ever opened against a quiz.
	CountByQuiz(ctx context.Context, quizID string) (int, error)
}

// QuizRepository loads quiz aggregates (from cache/backing store) with
// questions and answers attached.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizWriter persists authored quizzes.
type QuizWriter interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	QuizzesByAuthor(ctx context.Context, userID string) ([]domain.Quiz, error)
}

// QuizService contains the core quiz use cases: session progression, answer
// evaluation, result aggregation and quiz authoring.
type QuizService struct {
	sessions  SessionStore
	quizzes   QuizRepository
	authoring QuizWriter
	validate  *validator.Validate
	now       func() time.Time
}

func NewQuizService(sessions SessionStore, quizzes QuizRepository, authoring QuizWriter) *QuizService {
	return &QuizService{
		sessions:  sessions,
		quizzes:   quizzes,
		authoring: authoring,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(sessions SessionStore, quizzes QuizRepository, authoring QuizWriter, now func() time.Time) *QuizService {
	s := NewQuizService(sessions, quizzes, authoring)
	s.now = now
	return s
}

// StartOrResumeSession opens the caller's attempt at a quiz. Opening is
// idempotent: an existing open session is resumed, never duplicated. A fresh
// session gets its position seeded with the first-ordered question.
func (s *QuizService) StartOrResumeSession(ctx context.Context, userID, quizID string) (domain.QuizSession, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizSession{}, s.fail("start session", err)
	}

	session, err := s.sessions.StartOrResume(ctx, userID, quizID)
	if err != nil {
		return domain.QuizSession{}, s.fail("start session", err)
	}

	if session.CurrentQuestionID == "" {
		if first := firstQuestion(quiz); first != nil {
			session, err = s.sessions.SetCurrentQuestion(ctx, session.ID, first.ID)
			if err != nil {
				return domain.QuizSession{}, s.fail("start session", err)
			}
		}
	}
	return session, nil
}

// SubmitAnswerInput addresses one submission.
type SubmitAnswerInput struct {
	QuizID     string
	SessionID  string
	QuestionID string
	AnswerID   string
}

// SubmitAnswer records an answer for the session's quiz, scores it against
// stored data and completes the session when the highest-ordered question was
// just answered. Resubmitting an already-answered question fails with
// question_already_answered; the score reflects only the first submission.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID string, in SubmitAnswerInput) (domain.SubmissionResult, error) {
	session, err := s.sessions.GetForUser(ctx, in.SessionID, userID)
	if err != nil {
		return domain.SubmissionResult{}, s.fail("submit answer", err)
	}
	if session.QuizID != in.QuizID {
		return domain.SubmissionResult{}, domain.ErrSessionNotFound
	}
	if !session.Open() {
		return domain.SubmissionResult{}, domain.ErrSessionClosed
	}

	quiz, err := s.quizzes.GetQuiz(ctx, in.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, s.fail("submit answer", err)
	}

	eval, err := evaluateAnswer(quiz, in.QuestionID, in.AnswerID)
	if err != nil {
		return domain.SubmissionResult{}, s.fail("submit answer", err)
	}

	ordered := orderedQuestions(quiz)
	idx := positionOf(ordered, in.QuestionID)
	isLast := idx == len(ordered)-1

	var nextQuestionID *string
	if !isLast {
		id := ordered[idx+1].ID
		nextQuestionID = &id
	}

	var endedAt *time.Time
	if isLast {
		t := s.now()
		endedAt = &t
	}

	updated, record, err := s.sessions.RecordSubmission(ctx, domain.QuizSessionAnswer{
		SessionID:        session.ID,
		QuestionID:       in.QuestionID,
		SelectedAnswerID: in.AnswerID,
		IsCorrect:        eval.isCorrect,
	}, endedAt)
	if err != nil {
		return domain.SubmissionResult{}, s.fail("submit answer", err)
	}

	return domain.SubmissionResult{
		SessionAnswer:  record,
		IsCorrect:      eval.isCorrect,
		Explanation:    eval.explanation(),
		CorrectAnswer:  eval.correct,
		IsLastQuestion: isLast,
		NextQuestionID: nextQuestionID,
		UpdatedScore:   updated.Score,
	}, nil
}

// AdvanceTo moves the session's position to any question of its quiz:
// forward, backward or an arbitrary jump from a question picker. Closed
// sessions may still navigate, for read-only review.
func (s *QuizService) AdvanceTo(ctx context.Context, userID, sessionID, questionID string) (domain.QuizSession, error) {
	session, err := s.sessions.GetForUser(ctx, sessionID, userID)
	if err != nil {
		return domain.QuizSession{}, s.fail("advance question", err)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.QuizSession{}, s.fail("advance question", err)
	}
	if questionByID(quiz, questionID) == nil {
		return domain.QuizSession{}, domain.ErrQuestionNotFound
	}

	session, err = s.sessions.SetCurrentQuestion(ctx, sessionID, questionID)
	if err != nil {
		return domain.QuizSession{}, s.fail("advance question", err)
	}
	return session, nil
}

// NextQuestion advances strictly to the question ordered directly after the
// session's current one, failing with end_of_quiz when none exists.
func (s *QuizService) NextQuestion(ctx context.Context, userID, quizID, sessionID string) (domain.QuizSession, error) {
	session, err := s.sessions.GetForUser(ctx, sessionID, userID)
	if err != nil {
		return domain.QuizSession{}, s.fail("next question", err)
	}
	if session.QuizID != quizID {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizSession{}, s.fail("next question", err)
	}

	current := questionByID(quiz, session.CurrentQuestionID)
	if current == nil {
		return domain.QuizSession{}, domain.ErrQuestionNotFound
	}

	next := questionAfter(orderedQuestions(quiz), current)
	if next == nil {
		return domain.QuizSession{}, domain.ErrEndOfQuiz
	}

	session, err = s.sessions.SetCurrentQuestion(ctx, sessionID, next.ID)
	if err != nil {
		return domain.QuizSession{}, s.fail("next question", err)
	}
	return session, nil
}

// GetResults summarizes a session: rounded percentage, elapsed minutes,
// per-question review and the raw answer log.
func (s *QuizService) GetResults(ctx context.Context, userID, sessionID string) (domain.SessionSummary, error) {
	session, err := s.sessions.GetForUser(ctx, sessionID, userID)
	if err != nil {
		return domain.SessionSummary{}, s.fail("get results", err)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.SessionSummary{}, s.fail("get results", err)
	}

	answers, err := s.sessions.Answers(ctx, sessionID)
	if err != nil {
		return domain.SessionSummary{}, s.fail("get results", err)
	}

	return Summarize(session, quiz, answers), nil
}

// CreateQuizInput is the authoring payload.
type CreateQuizInput struct {
	Title       string                `json:"title" validate:"required"`
	Description string                `json:"description"`
	Category    string                `json:"category" validate:"required"`
	Difficulty  string                `json:"difficulty" validate:"required,oneof=beginner easy medium hard"`
	ImageURL    string                `json:"imageUrl" validate:"omitempty,uri"`
	Questions   []CreateQuestionInput `json:"questions" validate:"required,min=1,dive"`
}

type CreateQuestionInput struct {
	Prompt  string              `json:"question" validate:"required"`
	Ord     int                 `json:"order" validate:"required,min=1"`
	Answers []CreateAnswerInput `json:"answers" validate:"required,min=2,dive"`
}

type CreateAnswerInput struct {
	Text        string `json:"answer" validate:"required"`
	Ord         int    `json:"order" validate:"required,min=1"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

// CreateQuiz validates and persists an authored quiz. Beyond the field-level
// rules it enforces the data invariants progression depends on: unique
// question order within the quiz, unique answer text within a question, and
// exactly one correct answer per question.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, in CreateQuizInput) (domain.Quiz, error) {
	if err := s.validate.Struct(in); err != nil {
		return domain.Quiz{}, domain.ValidationError(err.Error())
	}
	if err := checkQuizInvariants(in); err != nil {
		return domain.Quiz{}, err
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		ImageURL:    in.ImageURL,
		CreatedByID: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, q := range in.Questions {
		question := &domain.Question{
			ID:        uuid.NewString(),
			QuizID:    quiz.ID,
			Prompt:    q.Prompt,
			Ord:       q.Ord,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, a := range q.Answers {
			question.Answers = append(question.Answers, &domain.Answer{
				ID:          uuid.NewString(),
				QuestionID:  question.ID,
				Text:        a.Text,
				Ord:         a.Ord,
				IsCorrect:   a.IsCorrect,
				Explanation: a.Explanation,
				CreatedAt:   now,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	created, err := s.authoring.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, s.fail("create quiz", err)
	}
	return created, nil
}

func checkQuizInvariants(in CreateQuizInput) error {
	seenOrd := make(map[int]bool, len(in.Questions))
	for _, q := range in.Questions {
		if seenOrd[q.Ord] {
			return domain.ValidationError(fmt.Sprintf("duplicate question order %d", q.Ord))
		}
		seenOrd[q.Ord] = true

		correct := 0
		seenText := make(map[string]bool, len(q.Answers))
		for _, a := range q.Answers {
			if a.IsCorrect {
				correct++
			}
			if seenText[a.Text] {
				return domain.ValidationError(fmt.Sprintf("duplicate answer %q for question %d", a.Text, q.Ord))
			}
			seenText[a.Text] = true
		}
		if correct != 1 {
			return domain.ValidationError(fmt.Sprintf("question %d must have exactly one correct answer, has %d", q.Ord, correct))
		}
	}
	return nil
}

// UserQuizzes builds the caller's dashboard: authored quizzes with
// participation counts and the caller's completed attempts.
func (s *QuizService) UserQuizzes(ctx context.Context, userID string) (domain.UserQuizzes, error) {
	created, err := s.authoring.QuizzesByAuthor(ctx, userID)
	if err != nil {
		return domain.UserQuizzes{}, s.fail("user quizzes", err)
	}

	result := domain.UserQuizzes{
		CreatedQuizzes:    make([]domain.QuizOverview, 0, len(created)),
		CompletedSessions: []domain.CompletedSession{},
	}
	for _, quiz := range created {
		participants, err := s.sessions.CountByQuiz(ctx, quiz.ID)
		if err != nil {
			return domain.UserQuizzes{}, s.fail("user quizzes", err)
		}
		result.CreatedQuizzes = append(result.CreatedQuizzes, domain.QuizOverview{
			ID:           quiz.ID,
			Title:        quiz.Title,
			Description:  quiz.Description,
			Category:     quiz.Category,
			Difficulty:   quiz.Difficulty,
			ImageURL:     quiz.ImageURL,
			Questions:    len(quiz.Questions),
			Participants: participants,
			CreatedAt:    quiz.CreatedAt.Format("Jan 2, 2006"),
		})
	}

	completed, err := s.sessions.CompletedForUser(ctx, userID)
	if err != nil {
		return domain.UserQuizzes{}, s.fail("user quizzes", err)
	}
	for _, session := range completed {
		quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
		if err != nil {
			return domain.UserQuizzes{}, s.fail("user quizzes", err)
		}
		card := domain.CompletedSession{
			ID:              session.ID,
			QuizID:          session.QuizID,
			Title:           quiz.Title,
			Description:     quiz.Description,
			Category:        quiz.Category,
			Difficulty:      quiz.Difficulty,
			ImageURL:        quiz.ImageURL,
			Questions:       len(quiz.Questions),
			ScorePercentage: scorePercentage(session.Score, len(quiz.Questions)),
			CompletedAt:     "Unknown",
		}
		if session.EndedAt != nil {
			card.TimeTakenMinutes = int(math.Round(session.EndedAt.Sub(session.StartedAt).Minutes()))
			card.CompletedAt = session.EndedAt.Format("Jan 2, 2006")
		}
		result.CompletedSessions = append(result.CompletedSessions, card)
	}
	return result, nil
}

// fail keeps tagged domain errors intact and degrades anything else to the
// internal error after logging the cause. Callers of the service never see a
// raw infra failure.
func (s *QuizService) fail(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	log.Printf("%s failed: %v", op, err)
	return domain.ErrInternal
}
