package domain

import "errors"

// Error is the tagged outcome every operation reports instead of a loose
// exception. Code and Status are part of the client contract and must not
// change between releases.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches errors by code so wrapped instances still compare equal to the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUnauthorized = &Error{
		Status:  401,
		Code:    "unauthorized",
		Title:   "Unauthorized",
		Message: "You do not have access to this resource.",
	}
	ErrQuizNotFound = &Error{
		Status:  404,
		Code:    "quiz_not_found",
		Title:   "Quiz Not Found",
		Message: "The quiz you are looking for does not exist.",
	}
	ErrSessionNotFound = &Error{
		Status:  404,
		Code:    "quiz_session_not_found",
		Title:   "Quiz Session Not Found",
		Message: "The quiz session you are looking for does not exist",
	}
	ErrQuestionNotFound = &Error{
		Status:  404,
		Code:    "question_not_found",
		Title:   "Question Not Found",
		Message: "The quiz question you are looking for does not exist",
	}
	ErrAnswerNotFound = &Error{
		Status:  404,
		Code:    "answer_not_found",
		Title:   "Answer Not Found",
		Message: "The selected answer does not exist for this question",
	}
	ErrAlreadyAnswered = &Error{
		Status:  400,
		Code:    "question_already_answered",
		Title:   "Question Already Answered",
		Message: "This question has already been answered",
	}
	ErrSessionClosed = &Error{
		Status:  400,
		Code:    "quiz_session_closed",
		Title:   "Quiz Session Closed",
		Message: "This quiz session has already been completed.",
	}
	ErrEndOfQuiz = &Error{
		Status:  400,
		Code:    "end_of_quiz",
		Title:   "End of Quiz",
		Message: "No more questions available for this quiz.",
	}
	ErrInternal = &Error{
		Status:  500,
		Code:    "internal_server_error",
		Title:   "Internal Server Error",
		Message: "Oops! Something went wrong on our side. Please try again.",
	}
)

// ValidationError reports malformed input with field-level detail before any
// mutation happens.
func ValidationError(detail string) *Error {
	return &Error{
		Status:  400,
		Code:    "validation_error",
		Title:   "Invalid Data",
		Message: detail,
	}
}

// AsError extracts the tagged error from err, or falls back to ErrInternal so
// callers never see an unclassified failure.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return ErrInternal
}
