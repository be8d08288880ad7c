package handler

import (
	"net/http"
	"time"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// How often the subscription re-reads the story status.
	statusPollPeriod = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The poll read path is public, so is the push variant of it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusSubscription handles GET /api/ws/story-status?id=... and pushes
// status changes until the story reaches a terminal state. It is the push
// alternative to polling GET /api/webhook.
func (h *Handler) StatusSubscription(c *gin.Context) {
	storyID := c.Query("id")
	if storyID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Story ID ist erforderlich"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	statusSubscriptionsActive.Inc()
	defer statusSubscriptionsActive.Dec()

	log := h.logger.With(zap.String("storyID", storyID), zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("Status subscription opened")

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	h.pushStatusUntilTerminal(c, conn, storyID, done, log)
}

func (h *Handler) pushStatusUntilTerminal(c *gin.Context, conn *websocket.Conn, storyID string, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(statusPollPeriod)
	defer ticker.Stop()
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	var lastSent *models.StoryStatusResponse
	send := func() bool {
		resp, err := h.stories.GetStatus(c.Request.Context(), storyID)
		if err != nil {
			log.Warn("Status read failed, closing subscription", zap.Error(err))
			return false
		}
		if !statusChanged(lastSent, resp) {
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			return false
		}
		lastSent = resp
		if resp.Status.IsTerminal() {
			log.Debug("Story reached terminal state, closing subscription", zap.String("status", string(resp.Status)))
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(resp.Status)))
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-done:
			log.Debug("Status subscription closed by client")
			return
		case <-c.Request.Context().Done():
			return
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// statusChanged reports whether the new response carries something the
// client has not seen yet. Repeated partial deliveries with new text count
// as changes.
func statusChanged(prev, next *models.StoryStatusResponse) bool {
	if prev == nil {
		return true
	}
	if prev.Status != next.Status {
		return true
	}
	return derefOrEmptyStr(prev.PartialStory) != derefOrEmptyStr(next.PartialStory) ||
		derefOrEmptyStr(prev.Story) != derefOrEmptyStr(next.Story) ||
		derefOrEmptyStr(prev.Title) != derefOrEmptyStr(next.Title)
}

func derefOrEmptyStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
