package http

import (
	"net/http"

	"quizdeck-service/internal/app"
)

func NewRouter(service *app.QuizService, auth Authenticator) http.Handler {
	api := NewAPI(service, auth)
	ws := NewWSHandler(service, auth)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/quizzes", api.HandleCreateQuiz)
	mux.HandleFunc("POST /api/quizzes/{quizId}/sessions", api.HandleStartSession)
	mux.HandleFunc("POST /api/sessions/{sessionId}/answers", api.HandleSubmitAnswer)
	mux.HandleFunc("POST /api/sessions/{sessionId}/advance", api.HandleAdvance)
	mux.HandleFunc("POST /api/sessions/{sessionId}/next", api.HandleNextQuestion)
	mux.HandleFunc("GET /api/sessions/{sessionId}/results", api.HandleResults)
	mux.HandleFunc("GET /api/me/quizzes", api.HandleUserQuizzes)
	mux.HandleFunc("/ws", ws.ServeWS)

	return mux
}
