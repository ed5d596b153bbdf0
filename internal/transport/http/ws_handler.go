package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

// WSHandler runs an interactive quiz attempt over a websocket: the session is
// resolved on connect, then the client drives it with answer/advance/next/
// results messages. All writes happen from the read loop, so no write mutex
// is needed.
type WSHandler struct {
	service  *app.QuizService
	auth     Authenticator
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, auth Authenticator) *WSHandler {
	return &WSHandler{
		service: service,
		auth:    auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type wsAnswerPayload struct {
	QuestionID       string `json:"questionId"`
	SelectedAnswerID string `json:"selectedAnswerId"`
}

type wsAdvancePayload struct {
	QuestionID string `json:"questionId"`
}

// ServeWS upgrades the request and wires the connection into the session use
// cases. The session frame sent on connect carries the resumed-or-created
// attempt, including the current question pointer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, domain.ValidationError("quizId is required"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartOrResumeSession(r.Context(), user.ID, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: domain.AsError(err)})
		return
	}
	_ = conn.WriteJSON(outboundMessage{Type: "session", Payload: session})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "answer":
			var payload wsAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, domain.ValidationError("invalid answer payload"))
				continue
			}
			result, err := h.service.SubmitAnswer(r.Context(), user.ID, app.SubmitAnswerInput{
				QuizID:     quizID,
				SessionID:  session.ID,
				QuestionID: payload.QuestionID,
				AnswerID:   payload.SelectedAnswerID,
			})
			if err != nil {
				h.sendError(conn, err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage{Type: "answerResult", Payload: result})
			if result.IsLastQuestion {
				if summary, err := h.service.GetResults(r.Context(), user.ID, session.ID); err == nil {
					_ = conn.WriteJSON(outboundMessage{Type: "results", Payload: summary})
				}
			}
		case "advance":
			var payload wsAdvancePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, domain.ValidationError("invalid advance payload"))
				continue
			}
			updated, err := h.service.AdvanceTo(r.Context(), user.ID, session.ID, payload.QuestionID)
			if err != nil {
				h.sendError(conn, err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage{Type: "session", Payload: updated})
		case "next":
			updated, err := h.service.NextQuestion(r.Context(), user.ID, quizID, session.ID)
			if err != nil {
				h.sendError(conn, err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage{Type: "session", Payload: updated})
		case "results":
			summary, err := h.service.GetResults(r.Context(), user.ID, session.ID)
			if err != nil {
				h.sendError(conn, err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage{Type: "results", Payload: summary})
		default:
			h.sendError(conn, domain.ValidationError("unsupported message type"))
		}
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, err error) {
	if writeErr := conn.WriteJSON(outboundMessage{Type: "error", Payload: domain.AsError(err)}); writeErr != nil {
		log.Printf("ws write error: %v", writeErr)
	}
}
