package domain

// SubmissionResult is the outcome of recording an answer, mirroring what a
// quiz-taking client needs to render feedback and move on.
type SubmissionResult struct {
	SessionAnswer  QuizSessionAnswer `json:"sessionAnswer"`
	IsCorrect      bool              `json:"isCorrect"`
	Explanation    string            `json:"explanation"`
	CorrectAnswer  *Answer           `json:"correctAnswer,omitempty"`
	IsLastQuestion bool              `json:"isLastQuestion"`
	NextQuestionID *string           `json:"nextQuestionId"`
	UpdatedScore   int               `json:"updatedScore"`
}

// QuestionReview is one row of the post-completion review screen.
type QuestionReview struct {
	QuestionID     string `json:"questionId"`
	Prompt         string `json:"question"`
	Ord            int    `json:"order"`
	Answered       bool   `json:"answered"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	CorrectAnswer  string `json:"correctAnswer,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
}

// SessionSummary aggregates a finished (or abandoned) attempt.
type SessionSummary struct {
	SessionID       string              `json:"sessionId"`
	QuizID          string              `json:"quizId"`
	QuizTitle       string              `json:"quizTitle"`
	TotalQuestions  int                 `json:"totalQuestions"`
	Score           int                 `json:"score"`
	ScorePercentage int                 `json:"scorePercentage"`
	ElapsedMinutes  int                 `json:"elapsedMinutes"`
	Review          []QuestionReview    `json:"review"`
	Answers         []QuizSessionAnswer `json:"answers"`
}

// QuizOverview is a dashboard card for a quiz the caller authored.
type QuizOverview struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Questions    int    `json:"questions"`
	Participants int    `json:"participants"`
	CreatedAt    string `json:"createdAt"`
}

// CompletedSession is a dashboard card for an attempt the caller finished.
type CompletedSession struct {
	ID               string `json:"id"`
	QuizID           string `json:"quizId"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Difficulty       string `json:"difficulty"`
	ImageURL         string `json:"imageUrl,omitempty"`
	Questions        int    `json:"questions"`
	ScorePercentage  int    `json:"score"`
	TimeTakenMinutes int    `json:"timeTakenMinutes"`
	CompletedAt      string `json:"completedAt"`
}

// UserQuizzes is the "my quizzes" dashboard payload.
type UserQuizzes struct {
	CreatedQuizzes    []QuizOverview     `json:"createdQuizzes"`
	CompletedSessions []CompletedSession `json:"completedSessions"`
}
