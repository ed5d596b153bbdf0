package http

import "quizdeck-service/internal/domain"

// actionResult is the response envelope every endpoint returns: data on
// success, a tagged error otherwise, never both.
type actionResult struct {
	Data    any           `json:"data"`
	Success bool          `json:"success"`
	Error   *domain.Error `json:"error"`
}

type submitAnswerRequest struct {
	QuizID           string `json:"quizId"`
	QuestionID       string `json:"questionId"`
	SelectedAnswerID string `json:"selectedAnswerId"`
}

type advanceRequest struct {
	QuestionID string `json:"questionId"`
}

type nextQuestionRequest struct {
	QuizID string `json:"quizId"`
}
