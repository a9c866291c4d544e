package server

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsMaxMessageSize = 16 * 1024
	// голосовой режим веб-клиента держит соединение открытым между вопросами
	wsIdleTimeout = 10 * time.Minute
)

type wsReply struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleWS — тот же /ask, но поверх одного websocket соединения: {question, session_id?} -> {response}|{error}.
// Вопросы обрабатываются по очереди, в порядке прихода.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	s.logger.Infow("websocket connected", "remote", c.ClientIP())

	ctx := c.Request.Context()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnw("websocket read failed", "error", err)
			}
			return
		}

		var reply wsReply
		var req askRequest
		if err := json.Unmarshal(message, &req); err != nil {
			reply.Error = errInvalidBody
		} else if response, _, err := s.answer(ctx, req); err != nil {
			s.logger.Warnw("websocket question failed", "session_id", req.SessionID, "error", err)
			reply.Error = publicError(err)
		} else {
			reply.Response = response
		}
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warnw("websocket write failed", "error", err)
			return
		}
	}
}
