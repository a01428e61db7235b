package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"parentcoach/internal/coach"
)

const (
	conversationWSWriteWait = 10 * time.Second
	conversationWSPongWait  = 60 * time.Second
	conversationWSPingEvery = (conversationWSPongWait * 9) / 10
)

var conversationWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type conversationWSInbound struct {
	Type              string `json:"type"`
	Message           string `json:"message,omitempty"`
	SessionID         string `json:"sessionId,omitempty"`
	TimeBudgetMinutes int    `json:"timeBudgetMinutes,omitempty"`
	ExplicitMode      string `json:"explicitMode,omitempty"`
}

type conversationWSOutbound struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"sessionId,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Phase      string   `json:"phase,omitempty"`
	ReplyText  string   `json:"replyText,omitempty"`
	CrisisFlag bool     `json:"crisisFlag,omitempty"`
	Resources  []string `json:"resources,omitempty"`
	Code       string   `json:"code,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// ConversationHandler runs the message pipeline over a websocket so a client
// can hold one connection for a whole coaching session.
type ConversationHandler struct {
	orch *coach.Orchestrator
}

func NewConversationHandler(orch *coach.Orchestrator) *ConversationHandler {
	return &ConversationHandler{orch: orch}
}

func (h *ConversationHandler) HandleConversationWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = strings.TrimSpace(r.Header.Get("X-User-Id"))
	}
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := conversationWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(conversationWSPongWait)); err != nil {
		log.Printf("conversation ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(conversationWSPongWait))
	})

	writeCh := make(chan conversationWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(conversationWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(conversationWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(conversationWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushConversationWS(writeCh, conversationWSOutbound{Type: "connected"})

	for {
		var in conversationWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		switch msgType {
		case "ping":
			pushConversationWS(writeCh, conversationWSOutbound{Type: "pong"})
		case "send":
			result, err := h.orch.HandleMessage(ctx, coach.SubmitRequest{
				Message:           in.Message,
				SessionID:         strings.TrimSpace(in.SessionID),
				UserID:            userID,
				TimeBudgetMinutes: in.TimeBudgetMinutes,
				ExplicitMode:      strings.TrimSpace(in.ExplicitMode),
			})
			if err != nil {
				pushConversationWS(writeCh, conversationWSOutbound{
					Type:    "error",
					Code:    wsErrorCode(err),
					Message: wsErrorMessage(err),
				})
				continue
			}
			pushConversationWS(writeCh, conversationWSOutbound{
				Type:       "reply",
				SessionID:  result.SessionID,
				Mode:       string(result.Mode),
				Phase:      string(result.Phase),
				ReplyText:  result.ReplyText,
				CrisisFlag: result.CrisisFlag,
				Resources:  result.Resources,
			})
		default:
			pushConversationWS(writeCh, conversationWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + msgType,
			})
		}
	}
}

func wsErrorCode(err error) string {
	_, code := classifyError(err)
	return code
}

func wsErrorMessage(err error) string {
	if errors.Is(err, coach.ErrGenerationUnavailable) || errors.Is(err, coach.ErrCrisisIndeterminate) {
		log.Printf("conversation ws degraded: %v", err)
		return degradedReply
	}
	return err.Error()
}

func pushConversationWS(writeCh chan conversationWSOutbound, out conversationWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
