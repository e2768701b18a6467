package monitor

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream godoc
// @Summary      Stream session status
// @Description  WebSocket emitting the current status, then one JSON status per update
// @Tags         monitor
// @Param        id   path  string  true  "Session ID"
// @Success      101
// @Failure      404  {object}  shared.APIError
// @Router       /v1/monitor/sessions/{id}/ws [get]
func (h *Handler) Stream(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	log := h.logger.With("session_id", session.ID())
	log.Info("status stream connected")

	done := make(chan struct{})
	go readUntilClosed(ws, done)
	writeStatuses(ws, session.Snapshot().Status, updates, done)

	_ = ws.Close()
	log.Info("status stream disconnected")
	return nil
}

// readUntilClosed consumes control frames so pongs and the peer's close are
// seen, and closes done when the connection goes away.
func readUntilClosed(ws *websocket.Conn, done chan struct{}) {
	defer close(done)

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writeStatuses(ws *websocket.Conn, initial Status, updates <-chan Status, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(initial); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case st, ok := <-updates:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session removed"))
				return
			}
			if err := ws.WriteJSON(st); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
