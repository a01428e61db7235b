// Package handler exposes the coaching pipeline over HTTP and websocket.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"parentcoach/internal/coach"
)

type MessageHandler struct {
	orch *coach.Orchestrator
}

func NewMessageHandler(orch *coach.Orchestrator) *MessageHandler {
	return &MessageHandler{orch: orch}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// degradedReply is what the client shows when generation or the crisis
// assessment is unavailable. Deliberately generic: the user must never see a
// raw infrastructure error, and never silence.
const degradedReply = "We're having technical difficulties right now. If you are in crisis, please call or text 988 (Suicide & Crisis Lifeline)."

func (h *MessageHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_argument", "POST required")
		return
	}

	var req coach.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = strings.TrimSpace(r.Header.Get("X-User-Id"))
	}

	result, err := h.orch.HandleMessage(r.Context(), req)
	if err != nil {
		status, code := classifyError(err)
		if status == http.StatusServiceUnavailable {
			log.Printf("message handler degraded: %v", err)
			writeError(w, status, code, degradedReply)
			return
		}
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MessageHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_argument", "GET required")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = strings.TrimSpace(r.Header.Get("X-User-Id"))
	}
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "user_id is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": h.orch.Sessions(userID),
	})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, coach.ErrEmptyMessage):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, coach.ErrNoUser):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, coach.ErrCrisisIndeterminate):
		return http.StatusServiceUnavailable, "crisis_indeterminate"
	case errors.Is(err, coach.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, "generation_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}
