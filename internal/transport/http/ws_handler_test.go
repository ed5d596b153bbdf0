package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizdeck-service/internal/domain"
)

func dialWS(t *testing.T, srv *httptest.Server, user, quizID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?quizId=" + quizID
	header := http.Header{}
	if user != "" {
		header.Set("X-User-ID", user)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg.Type, msg.Payload
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(outboundMessage{Type: msgType, Payload: payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestWSSendsSessionOnConnect(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv, "u1", "quiz-1")

	frameType, payload := readFrame(t, conn)
	if frameType != "session" {
		t.Fatalf("expected session frame, got %q", frameType)
	}
	var session domain.QuizSession
	if err := json.Unmarshal(payload, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.QuizID != "quiz-1" || session.CurrentQuestionID != "q1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestWSRejectsMissingIdentity(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?quizId=quiz-1"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure without identity")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestWSAnswerFlow(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv, "u1", "quiz-1")
	readFrame(t, conn) // session frame

	sendFrame(t, conn, "answer", wsAnswerPayload{QuestionID: "q1", SelectedAnswerID: "q1-wrong"})
	frameType, payload := readFrame(t, conn)
	if frameType != "answerResult" {
		t.Fatalf("expected answerResult, got %q", frameType)
	}
	var result domain.SubmissionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.IsCorrect || result.UpdatedScore != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.CorrectAnswer == nil || result.CorrectAnswer.ID != "q1-right" {
		t.Fatalf("wrong answers must reveal the correct one: %+v", result)
	}

	// Terminal answer closes the session and pushes the results frame.
	sendFrame(t, conn, "answer", wsAnswerPayload{QuestionID: "q2", SelectedAnswerID: "q2-right"})
	frameType, payload = readFrame(t, conn)
	if frameType != "answerResult" {
		t.Fatalf("expected answerResult, got %q", frameType)
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsLastQuestion || result.NextQuestionID != nil {
		t.Fatalf("expected terminal result, got %+v", result)
	}

	frameType, payload = readFrame(t, conn)
	if frameType != "results" {
		t.Fatalf("expected results frame after the last answer, got %q", frameType)
	}
	var summary domain.SessionSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Score != 1 || summary.ScorePercentage != 50 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestWSDoubleAnswerReportsError(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv, "u1", "quiz-1")
	readFrame(t, conn) // session frame

	sendFrame(t, conn, "answer", wsAnswerPayload{QuestionID: "q1", SelectedAnswerID: "q1-right"})
	readFrame(t, conn) // answerResult

	sendFrame(t, conn, "answer", wsAnswerPayload{QuestionID: "q1", SelectedAnswerID: "q1-right"})
	frameType, payload := readFrame(t, conn)
	if frameType != "error" {
		t.Fatalf("expected error frame, got %q", frameType)
	}
	var wsErr domain.Error
	if err := json.Unmarshal(payload, &wsErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if wsErr.Code != "question_already_answered" {
		t.Fatalf("unexpected code: %+v", wsErr)
	}
}

func TestWSNavigation(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv, "u1", "quiz-1")
	readFrame(t, conn) // session frame

	sendFrame(t, conn, "next", nil)
	frameType, payload := readFrame(t, conn)
	if frameType != "session" {
		t.Fatalf("expected session frame, got %q", frameType)
	}
	var session domain.QuizSession
	if err := json.Unmarshal(payload, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.CurrentQuestionID != "q2" {
		t.Fatalf("expected q2 after next, got %q", session.CurrentQuestionID)
	}

	sendFrame(t, conn, "advance", wsAdvancePayload{QuestionID: "q1"})
	frameType, payload = readFrame(t, conn)
	if frameType != "session" {
		t.Fatalf("expected session frame, got %q", frameType)
	}
	if err := json.Unmarshal(payload, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.CurrentQuestionID != "q1" {
		t.Fatalf("expected q1 after advance, got %q", session.CurrentQuestionID)
	}

	sendFrame(t, conn, "bogus", nil)
	frameType, _ = readFrame(t, conn)
	if frameType != "error" {
		t.Fatalf("unsupported types must report an error frame, got %q", frameType)
	}
}
