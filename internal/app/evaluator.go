package app

import "quizdeck-service/internal/domain"

// evaluation is the server-side verdict on a submission. Correctness is
// derived from the stored answer flags, never from client input.
type evaluation struct {
	question  *domain.Question
	selected  *domain.Answer
	correct   *domain.Answer
	isCorrect bool
}

// evaluateAnswer validates that the question belongs to the quiz and the
// answer belongs to the question, then scores the selection against the
// stored correct answer. Pure function of the loaded aggregate.
func evaluateAnswer(quiz domain.Quiz, questionID, answerID string) (evaluation, error) {
	question := questionByID(quiz, questionID)
	if question == nil {
		return evaluation{}, domain.ErrQuestionNotFound
	}

	var selected *domain.Answer
	for _, a := range question.Answers {
		if a.ID == answerID {
			selected = a
			break
		}
	}
	if selected == nil {
		return evaluation{}, domain.ErrAnswerNotFound
	}

	var correct *domain.Answer
	for _, a := range question.Answers {
		if a.IsCorrect {
			correct = a
			break
		}
	}

	return evaluation{
		question:  question,
		selected:  selected,
		correct:   correct,
		isCorrect: selected.IsCorrect,
	}, nil
}

// explanation returns the correct answer's explanation, empty when authoring
// left it out.
func (e evaluation) explanation() string {
	if e.correct == nil {
		return ""
	}
	return e.correct.Explanation
}
