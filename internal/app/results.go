package app

import (
	"math"

	"quizdeck-service/internal/domain"
)

const notAnswered = "not answered"

// Summarize computes the review payload for a session from its answer log.
// Percentage and elapsed time are rounded to the nearest integer; an empty
// quiz reports 0% rather than dividing by zero.
func Summarize(session domain.QuizSession, quiz domain.Quiz, answers []domain.QuizSessionAnswer) domain.SessionSummary {
	ordered := orderedQuestions(quiz)

	byQuestion := make(map[string]domain.QuizSessionAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	review := make([]domain.QuestionReview, 0, len(ordered))
	for _, question := range ordered {
		row := domain.QuestionReview{
			QuestionID:     question.ID,
			Prompt:         question.Prompt,
			Ord:            question.Ord,
			SelectedAnswer: notAnswered,
		}

		var correct *domain.Answer
		for _, a := range question.Answers {
			if a.IsCorrect {
				correct = a
				break
			}
		}

		if record, ok := byQuestion[question.ID]; ok {
			row.Answered = true
			row.IsCorrect = record.IsCorrect
			for _, a := range question.Answers {
				if a.ID == record.SelectedAnswerID {
					row.SelectedAnswer = a.Text
					break
				}
			}
		}

		// The correct answer is only revealed when the user missed it
		// (or never got there).
		if !row.IsCorrect && correct != nil {
			row.CorrectAnswer = correct.Text
			row.Explanation = correct.Explanation
		}

		review = append(review, row)
	}

	summary := domain.SessionSummary{
		SessionID:      session.ID,
		QuizID:         quiz.ID,
		QuizTitle:      quiz.Title,
		TotalQuestions: len(ordered),
		Score:          session.Score,
		Review:         review,
		Answers:        answers,
	}
	summary.ScorePercentage = scorePercentage(session.Score, len(ordered))
	if session.EndedAt != nil {
		summary.ElapsedMinutes = int(math.Round(session.EndedAt.Sub(session.StartedAt).Minutes()))
	}
	return summary
}

func scorePercentage(score, totalQuestions int) int {
	if totalQuestions == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(totalQuestions) * 100))
}
