package domain

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the authenticated caller. Identity itself lives in an external
// auth collaborator; the core only needs a stable id.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Quiz is an authored collection of ordered multiple-choice questions.
// The aggregate is immutable for the duration of a session.
type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:q" json:"-"`

	ID          string    `bun:"id,pk" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description,omitempty"`
	Category    string    `bun:"category,notnull" json:"category"`
	Difficulty  string    `bun:"difficulty,notnull" json:"difficulty"`
	ImageURL    string    `bun:"image_url" json:"imageUrl,omitempty"`
	CreatedByID string    `bun:"created_by,nullzero" json:"createdById,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Questions []*Question `bun:"rel:has-many,join:id=quiz_id" json:"questions,omitempty"`
}

// Question belongs to exactly one quiz and owns its answers. Ord is the
// 1-based traversal index, unique within a quiz.
type Question struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq" json:"-"`

	ID        string    `bun:"id,pk" json:"id"`
	QuizID    string    `bun:"quiz_id,notnull" json:"quizId"`
	Prompt    string    `bun:"prompt,notnull" json:"question"`
	Ord       int       `bun:"ord,notnull" json:"order"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Answers []*Answer `bun:"rel:has-many,join:id=question_id" json:"answers,omitempty"`
}

// Answer is one choice for a question. Exactly one answer per question is
// marked correct; the invariant is enforced at authoring time. Explanation
// is only meaningful on the correct answer.
type Answer struct {
	bun.BaseModel `bun:"table:quiz_answers,alias:qa" json:"-"`

	ID          string    `bun:"id,pk" json:"id"`
	QuestionID  string    `bun:"question_id,notnull" json:"questionId"`
	Text        string    `bun:"answer,notnull" json:"answer"`
	Ord         int       `bun:"ord,notnull" json:"order"`
	IsCorrect   bool      `bun:"is_correct,notnull" json:"isCorrect"`
	Explanation string    `bun:"explanation" json:"explanation,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// QuizSession is one user's single attempt at one quiz. A session is open
// while EndedAt is nil and closed once it is set; EndedAt is set exactly
// once, when the highest-ordered question is answered. At most one open
// session exists per (user, quiz) pair.
type QuizSession struct {
	bun.BaseModel `bun:"table:quiz_sessions,alias:qs" json:"-"`

	ID                string     `bun:"id,pk" json:"id"`
	UserID            string     `bun:"user_id,notnull" json:"userId"`
	QuizID            string     `bun:"quiz_id,notnull" json:"quizId"`
	CurrentQuestionID string     `bun:"current_question_id,nullzero" json:"currentQuestionId,omitempty"`
	Score             int        `bun:"score,notnull,default:0" json:"score"`
	StartedAt         time.Time  `bun:"started_at,notnull,default:current_timestamp" json:"startedAt"`
	EndedAt           *time.Time `bun:"ended_at,nullzero" json:"endedAt,omitempty"`
}

// Open reports whether the session still accepts answers.
func (s QuizSession) Open() bool {
	return s.EndedAt == nil
}

// QuizSessionAnswer is the durable log of one submission: at most one record
// per (session, question), never mutated after creation.
type QuizSessionAnswer struct {
	bun.BaseModel `bun:"table:quiz_session_answers,alias:qsa" json:"-"`

	ID               string    `bun:"id,pk" json:"id"`
	SessionID        string    `bun:"session_id,notnull" json:"sessionId"`
	QuestionID       string    `bun:"question_id,notnull" json:"questionId"`
	SelectedAnswerID string    `bun:"selected_answer_id,notnull" json:"selectedAnswerId"`
	IsCorrect        bool      `bun:"is_correct,notnull" json:"isCorrect"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
