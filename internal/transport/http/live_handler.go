package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"quiz-engine/internal/app"
	"quiz-engine/internal/auth"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// LiveHandler streams the caller's new completions over a websocket.
type LiveHandler struct {
	service  *app.QuizService
	log      logging.Logger
	upgrader websocket.Upgrader
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	Email string `json:"email"`
}

func NewLiveHandler(service *app.QuizService, log logging.Logger, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeWS must run behind requireUser.
func (h *LiveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.SubscribeCompletions(user.Email)
	defer cancel()

	// the client only sends control frames; reading keeps pongs flowing and detects close
	readerDone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{Email: user.Email}}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case c, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, outboundMessage[domain.Completion]{Type: "completion", Payload: c}); err != nil {
				h.log.Debug(r.Context(), "ws write failed", "user", user.Email, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

func (h *LiveHandler) write(conn *websocket.Conn, msg any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}
