package http

import (
	"encoding/json"
	"net/http"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

// API exposes the quiz use cases over JSON endpoints.
type API struct {
	service *app.QuizService
	auth    Authenticator
}

func NewAPI(service *app.QuizService, auth Authenticator) *API {
	return &API{service: service, auth: auth}
}

func (a *API) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	defer r.Body.Close()
	var input app.CreateQuizInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, domain.ValidationError("invalid JSON body"))
		return
	}

	quiz, err := a.service.CreateQuiz(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, quiz)
}

func (a *API) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := a.service.StartOrResumeSession(r.Context(), user.ID, r.PathValue("quizId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (a *API) HandleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	defer r.Body.Close()
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ValidationError("invalid JSON body"))
		return
	}
	if req.QuizID == "" || req.QuestionID == "" || req.SelectedAnswerID == "" {
		writeError(w, domain.ValidationError("quizId, questionId and selectedAnswerId are required"))
		return
	}

	result, err := a.service.SubmitAnswer(r.Context(), user.ID, app.SubmitAnswerInput{
		QuizID:     req.QuizID,
		SessionID:  r.PathValue("sessionId"),
		QuestionID: req.QuestionID,
		AnswerID:   req.SelectedAnswerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (a *API) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	defer r.Body.Close()
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ValidationError("invalid JSON body"))
		return
	}
	if req.QuestionID == "" {
		writeError(w, domain.ValidationError("questionId is required"))
		return
	}

	session, err := a.service.AdvanceTo(r.Context(), user.ID, r.PathValue("sessionId"), req.QuestionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (a *API) HandleNextQuestion(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	defer r.Body.Close()
	var req nextQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ValidationError("invalid JSON body"))
		return
	}
	if req.QuizID == "" {
		writeError(w, domain.ValidationError("quizId is required"))
		return
	}

	session, err := a.service.NextQuestion(r.Context(), user.ID, req.QuizID, r.PathValue("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (a *API) HandleResults(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := a.service.GetResults(r.Context(), user.ID, r.PathValue("sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (a *API) HandleUserQuizzes(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	dashboard, err := a.service.UserQuizzes(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, dashboard)
}
