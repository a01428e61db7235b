package server

import (
	"net/http"

	"parentcoach/internal/handler"
	"parentcoach/internal/middleware"
)

func NewMux(
	messageHandler *handler.MessageHandler,
	conversationHandler *handler.ConversationHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/message", messageHandler.HandleMessage)
	mux.HandleFunc("/api/sessions", messageHandler.HandleSessions)
	mux.HandleFunc("/ws/conversation", conversationHandler.HandleConversationWS)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	return middleware.CORS(mux)
}
