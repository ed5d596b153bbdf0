package app

import (
	"sort"

	"quizdeck-service/internal/domain"
)

// orderedQuestions returns the quiz's questions sorted by (ord, id). The id
// tie-break makes traversal deterministic even over legacy data with
// duplicate ord values; new duplicates are rejected at authoring time.
func orderedQuestions(quiz domain.Quiz) []*domain.Question {
	questions := make([]*domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Ord != questions[j].Ord {
			return questions[i].Ord < questions[j].Ord
		}
		return questions[i].ID < questions[j].ID
	})
	return questions
}

// firstQuestion returns the question a fresh session starts on, or nil for an
// empty quiz.
func firstQuestion(quiz domain.Quiz) *domain.Question {
	ordered := orderedQuestions(quiz)
	if len(ordered) == 0 {
		return nil
	}
	return ordered[0]
}

// positionOf returns the index of questionID within ordered, or -1.
func positionOf(ordered []*domain.Question, questionID string) int {
	for i, q := range ordered {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

// questionByID finds a question belonging to the quiz, without ordering.
func questionByID(quiz domain.Quiz, questionID string) *domain.Question {
	for _, q := range quiz.Questions {
		if q.ID == questionID {
			return q
		}
	}
	return nil
}

// questionAfter returns the first question whose ord is exactly current+1,
// or nil when the current question is the last one.
func questionAfter(ordered []*domain.Question, current *domain.Question) *domain.Question {
	for _, q := range ordered {
		if q.Ord == current.Ord+1 {
			return q
		}
	}
	return nil
}
