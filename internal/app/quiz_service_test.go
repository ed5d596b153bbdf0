package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
)

func TestStartOrResumeSeedsFirstQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, err := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if session.CurrentQuestionID != "q1" {
		t.Fatalf("expected first question q1, got %q", session.CurrentQuestionID)
	}
	if session.Score != 0 || session.EndedAt != nil {
		t.Fatalf("expected fresh session, got %+v", session)
	}
}

func TestStartOrResumeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	first, err := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	second, err := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("resume session: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the open session to be resumed, got %s and %s", first.ID, second.ID)
	}
}

func TestStartOrResumeConcurrentCallsShareOneSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := service.StartOrResumeSession(ctx, "u1", "quiz-1")
			if err != nil {
				t.Errorf("start session: %v", err)
				return
			}
			ids[i] = session.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("expected one shared session, got %s and %s", ids[0], ids[i])
		}
	}
}

func TestStartOrResumeUnknownQuiz(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	_, err := service.StartOrResumeSession(ctx, "u1", "quiz-missing")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

// Walks the three-question fixture end to end: correct, incorrect, correct.
func TestSubmitAnswerFullRun(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, err := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	result, err := service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q1", AnswerID: "q1-right",
	})
	if err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if !result.IsCorrect || result.UpdatedScore != 1 {
		t.Fatalf("expected correct with score 1, got %+v", result)
	}
	if result.IsLastQuestion {
		t.Fatalf("q1 must not be the last question")
	}
	if result.NextQuestionID == nil || *result.NextQuestionID != "q2" {
		t.Fatalf("expected next question q2, got %v", result.NextQuestionID)
	}
	if result.Explanation == "" {
		t.Fatalf("expected explanation from the correct answer")
	}

	result, err = service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q2", AnswerID: "q2-wrong",
	})
	if err != nil {
		t.Fatalf("submit q2: %v", err)
	}
	if result.IsCorrect || result.UpdatedScore != 1 {
		t.Fatalf("expected incorrect with score still 1, got %+v", result)
	}
	if result.CorrectAnswer == nil || result.CorrectAnswer.ID != "q2-right" {
		t.Fatalf("expected correct answer q2-right, got %+v", result.CorrectAnswer)
	}
	if result.NextQuestionID == nil || *result.NextQuestionID != "q3" {
		t.Fatalf("expected next question q3, got %v", result.NextQuestionID)
	}

	result, err = service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q3", AnswerID: "q3-right",
	})
	if err != nil {
		t.Fatalf("submit q3: %v", err)
	}
	if !result.IsLastQuestion || result.NextQuestionID != nil {
		t.Fatalf("expected terminal submission, got %+v", result)
	}
	if result.UpdatedScore != 2 {
		t.Fatalf("expected final score 2, got %d", result.UpdatedScore)
	}

	summary, err := service.GetResults(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	if summary.ScorePercentage != 67 {
		t.Fatalf("expected 67%%, got %d%%", summary.ScorePercentage)
	}
	if len(summary.Review) != 3 || len(summary.Answers) != 3 {
		t.Fatalf("expected 3 review rows and 3 answers, got %d and %d", len(summary.Review), len(summary.Answers))
	}
}

func TestSubmitAnswerTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	in := app.SubmitAnswerInput{QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q1", AnswerID: "q1-right"}

	if _, err := service.SubmitAnswer(ctx, "u1", in); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// Retry with a different answer; the first submission must stand.
	in.AnswerID = "q1-wrong"
	_, err := service.SubmitAnswer(ctx, "u1", in)
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	summary, _ := service.GetResults(ctx, "u1", session.ID)
	if summary.Score != 1 {
		t.Fatalf("score must reflect only the first submission, got %d", summary.Score)
	}
}

func TestSubmitAnswerForeignQuestionMutatesNothing(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	_, err := service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "other-quiz-q", AnswerID: "q1-right",
	})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}

	summary, _ := service.GetResults(ctx, "u1", session.ID)
	if summary.Score != 0 || len(summary.Answers) != 0 {
		t.Fatalf("expected no state change, got score=%d answers=%d", summary.Score, len(summary.Answers))
	}
}

func TestSubmitAnswerUnknownAnswer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	_, err := service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q1", AnswerID: "nope",
	})
	if !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected answer not found, got %v", err)
	}
}

func TestSubmitAnswerOnClosedSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session := completeRun(t, service, "u1")

	_, err := service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q1", AnswerID: "q1-right",
	})
	if !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected session closed, got %v", err)
	}
}

func TestSubmitAnswerSessionOwnership(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	_, err := service.SubmitAnswer(ctx, "intruder", app.SubmitAnswerInput{
		QuizID: "quiz-1", SessionID: session.ID, QuestionID: "q1", AnswerID: "q1-right",
	})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("foreign sessions must look absent, got %v", err)
	}
}

func TestAdvanceToNavigatesFreely(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")

	updated, err := service.AdvanceTo(ctx, "u1", session.ID, "q3")
	if err != nil {
		t.Fatalf("jump forward: %v", err)
	}
	if updated.CurrentQuestionID != "q3" {
		t.Fatalf("expected q3, got %q", updated.CurrentQuestionID)
	}

	updated, err = service.AdvanceTo(ctx, "u1", session.ID, "q1")
	if err != nil {
		t.Fatalf("jump back: %v", err)
	}
	if updated.CurrentQuestionID != "q1" {
		t.Fatalf("expected q1, got %q", updated.CurrentQuestionID)
	}
}

func TestAdvanceToForeignQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	_, err := service.AdvanceTo(ctx, "u1", session.ID, "other-quiz-q")
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestAdvanceToAllowedAfterCompletion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session := completeRun(t, service, "u1")

	// Review navigation on a closed session.
	updated, err := service.AdvanceTo(ctx, "u1", session.ID, "q2")
	if err != nil {
		t.Fatalf("review navigation: %v", err)
	}
	if updated.CurrentQuestionID != "q2" {
		t.Fatalf("expected q2, got %q", updated.CurrentQuestionID)
	}
	if updated.EndedAt == nil {
		t.Fatalf("completion must not revert")
	}
}

func TestNextQuestionWalksInOrder(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")

	updated, err := service.NextQuestion(ctx, "u1", "quiz-1", session.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if updated.CurrentQuestionID != "q2" {
		t.Fatalf("expected q2, got %q", updated.CurrentQuestionID)
	}

	updated, err = service.NextQuestion(ctx, "u1", "quiz-1", session.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if updated.CurrentQuestionID != "q3" {
		t.Fatalf("expected q3, got %q", updated.CurrentQuestionID)
	}

	_, err = service.NextQuestion(ctx, "u1", "quiz-1", session.ID)
	if !errors.Is(err, domain.ErrEndOfQuiz) {
		t.Fatalf("expected end of quiz, got %v", err)
	}
}

func TestResultsAllCorrect(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	for _, submission := range []struct{ question, answer string }{
		{"q1", "q1-right"}, {"q2", "q2-right"}, {"q3", "q3-right"},
	} {
		if _, err := service.SubmitAnswer(ctx, "u1", app.SubmitAnswerInput{
			QuizID: "quiz-1", SessionID: session.ID, QuestionID: submission.question, AnswerID: submission.answer,
		}); err != nil {
			t.Fatalf("submit %s: %v", submission.question, err)
		}
	}

	summary, err := service.GetResults(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	if summary.ScorePercentage != 100 {
		t.Fatalf("expected 100%%, got %d%%", summary.ScorePercentage)
	}
	if len(summary.Review) != 3 {
		t.Fatalf("expected 3 review rows, got %d", len(summary.Review))
	}
	for _, row := range summary.Review {
		if !row.Answered || !row.IsCorrect {
			t.Fatalf("expected all rows answered and correct, got %+v", row)
		}
	}
}

func TestElapsedMinutesFromClock(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	quizzes := memory.NewSeededQuizStore(map[string]domain.Quiz{"quiz-1": fixtureQuiz()})
	sessions := memory.NewSessionStoreWithClock(clock)
	service := app.NewQuizServiceWithClock(sessions, quizzes, quizzes, clock)

	session, _ := service.StartOrResumeSession(ctx, "u1", "quiz-1")
	current = current.Add(7 * time.Minute)
	completeSession(t, service, "u1", session.ID)

	summary, err := service.GetResults(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	if summary.ElapsedMinutes != 7 {
		t.Fatalf("expected 7 elapsed minutes, got %d", summary.ElapsedMinutes)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	valid := app.CreateQuizInput{
		Title:      "Capitals",
		Category:   "geography",
		Difficulty: "easy",
		Questions: []app.CreateQuestionInput{
			{
				Prompt: "Capital of France?",
				Ord:    1,
				Answers: []app.CreateAnswerInput{
					{Text: "Paris", Ord: 1, IsCorrect: true, Explanation: "Paris has been the capital since 987."},
					{Text: "Lyon", Ord: 2},
				},
			},
		},
	}

	quiz, err := service.CreateQuiz(ctx, "author", valid)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.ID == "" || len(quiz.Questions) != 1 || len(quiz.Questions[0].Answers) != 2 {
		t.Fatalf("unexpected created quiz: %+v", quiz)
	}

	cases := map[string]func(*app.CreateQuizInput){
		"missing title":      func(in *app.CreateQuizInput) { in.Title = "" },
		"bad difficulty":     func(in *app.CreateQuizInput) { in.Difficulty = "impossible" },
		"no questions":       func(in *app.CreateQuizInput) { in.Questions = nil },
		"duplicate order":    func(in *app.CreateQuizInput) { in.Questions = append(in.Questions, in.Questions[0]) },
		"no correct answer":  func(in *app.CreateQuizInput) { in.Questions[0].Answers[0].IsCorrect = false },
		"two correct":        func(in *app.CreateQuizInput) { in.Questions[0].Answers[1].IsCorrect = true },
		"duplicate answer":   func(in *app.CreateQuizInput) { in.Questions[0].Answers[1].Text = "Paris" },
		"single answer only": func(in *app.CreateQuizInput) { in.Questions[0].Answers = in.Questions[0].Answers[:1] },
	}
	for name, mutate := range cases {
		input := valid
		input.Questions = []app.CreateQuestionInput{{
			Prompt: valid.Questions[0].Prompt,
			Ord:    valid.Questions[0].Ord,
			Answers: []app.CreateAnswerInput{
				valid.Questions[0].Answers[0],
				valid.Questions[0].Answers[1],
			},
		}}
		mutate(&input)
		if _, err := service.CreateQuiz(ctx, "author", input); err == nil {
			t.Fatalf("%s: expected validation error", name)
		} else if domain.AsError(err).Code != "validation_error" {
			t.Fatalf("%s: expected validation_error, got %v", name, err)
		}
	}
}

func TestUserQuizzesDashboard(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	created, err := service.CreateQuiz(ctx, "author", app.CreateQuizInput{
		Title:      "Capitals",
		Category:   "geography",
		Difficulty: "easy",
		Questions: []app.CreateQuestionInput{
			{
				Prompt: "Capital of France?",
				Ord:    1,
				Answers: []app.CreateAnswerInput{
					{Text: "Paris", Ord: 1, IsCorrect: true},
					{Text: "Lyon", Ord: 2},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// A taker opens the authored quiz and an author completes the fixture quiz.
	if _, err := service.StartOrResumeSession(ctx, "taker", created.ID); err != nil {
		t.Fatalf("taker session: %v", err)
	}
	completeRun(t, service, "author")

	dashboard, err := service.UserQuizzes(ctx, "author")
	if err != nil {
		t.Fatalf("user quizzes: %v", err)
	}
	if len(dashboard.CreatedQuizzes) != 1 {
		t.Fatalf("expected 1 created quiz, got %d", len(dashboard.CreatedQuizzes))
	}
	overview := dashboard.CreatedQuizzes[0]
	if overview.Questions != 1 || overview.Participants != 1 {
		t.Fatalf("expected 1 question and 1 participant, got %+v", overview)
	}
	if len(dashboard.CompletedSessions) != 1 {
		t.Fatalf("expected 1 completed session, got %d", len(dashboard.CompletedSessions))
	}
	if dashboard.CompletedSessions[0].ScorePercentage != 67 {
		t.Fatalf("expected 67%%, got %d%%", dashboard.CompletedSessions[0].ScorePercentage)
	}
}

// completeRun answers the whole fixture quiz (correct, incorrect, correct)
// and returns the closed session.
func completeRun(t *testing.T, service *app.QuizService, userID string) domain.QuizSession {
	t.Helper()
	ctx := context.Background()

	session, err := service.StartOrResumeSession(ctx, userID, "quiz-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	completeSession(t, service, userID, session.ID)

	closed, err := service.GetResults(ctx, userID, session.ID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	session.Score = closed.Score
	now := time.Now()
	session.EndedAt = &now
	return session
}

func completeSession(t *testing.T, service *app.QuizService, userID, sessionID string) {
	t.Helper()
	ctx := context.Background()
	for _, submission := range []struct{ question, answer string }{
		{"q1", "q1-right"}, {"q2", "q2-wrong"}, {"q3", "q3-right"},
	} {
		if _, err := service.SubmitAnswer(ctx, userID, app.SubmitAnswerInput{
			QuizID: "quiz-1", SessionID: sessionID, QuestionID: submission.question, AnswerID: submission.answer,
		}); err != nil {
			t.Fatalf("submit %s: %v", submission.question, err)
		}
	}
}

func newTestService() (*app.QuizService, *memory.SessionStore) {
	quizzes := memory.NewSeededQuizStore(map[string]domain.Quiz{"quiz-1": fixtureQuiz()})
	sessions := memory.NewSessionStore()
	return app.NewQuizService(sessions, quizzes, quizzes), sessions
}

func fixtureQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "quiz-1",
		Title:      "Arithmetic Basics",
		Category:   "math",
		Difficulty: "easy",
		Questions: []*domain.Question{
			{
				ID: "q1", QuizID: "quiz-1", Prompt: "What is 2 + 2?", Ord: 1,
				Answers: []*domain.Answer{
					{ID: "q1-wrong", QuestionID: "q1", Text: "3", Ord: 1},
					{ID: "q1-right", QuestionID: "q1", Text: "4", Ord: 2, IsCorrect: true, Explanation: "2 + 2 = 4."},
				},
			},
			{
				ID: "q2", QuizID: "quiz-1", Prompt: "What is 3 * 3?", Ord: 2,
				Answers: []*domain.Answer{
					{ID: "q2-wrong", QuestionID: "q2", Text: "6", Ord: 1},
					{ID: "q2-right", QuestionID: "q2", Text: "9", Ord: 2, IsCorrect: true, Explanation: "3 * 3 = 9."},
				},
			},
			{
				ID: "q3", QuizID: "quiz-1", Prompt: "What is 10 / 2?", Ord: 3,
				Answers: []*domain.Answer{
					{ID: "q3-right", QuestionID: "q3", Text: "5", Ord: 1, IsCorrect: true, Explanation: "10 / 2 = 5."},
					{ID: "q3-wrong", QuestionID: "q3", Text: "4", Ord: 2},
				},
			},
		},
	}
}
