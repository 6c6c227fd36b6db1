package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/service"
)

const (
	wsPingInterval = 30 * time.Second
	wsPongWait     = 60 * time.Second
	wsWriteWait    = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin is not checked; the token must come from the header or ?token=
	CheckOrigin: func(*http.Request) bool { return true },
}

// GET /api/logs?userId=&resourceType=&startDate=&endDate=
func (h *handlers) listLogs(c echo.Context) error {
	q := service.LogQuery{ResourceType: model.ResourceType(c.QueryParam("resourceType"))}

	var err error
	if q.UserID, err = queryUUID(c, "userId"); err != nil {
		return err
	}
	if raw := c.QueryParam("startDate"); raw != "" {
		from, err := parseDate("startDate", raw)
		if err != nil {
			return err
		}
		q.From = &from
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		to, err := parseDate("endDate", raw)
		if err != nil {
			return err
		}
		q.To = &to
	}

	page, err := h.Activity.ListLogs(c.Request().Context(), actorOf(c), q, pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

// GET /api/logs/stream pushes every recorded entry as a JSON text frame.
func (h *handlers) streamLogs(c echo.Context) error {
	if err := h.Activity.CanStream(actorOf(c)); err != nil {
		return err
	}
	if h.Hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "live feed disabled")
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	entries, cancel := h.Hub.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case e, open := <-entries:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !open {
				// dropped by the hub or shutting down
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return nil
			}
			if err := conn.WriteJSON(e); err != nil {
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed; closed is closed when the peer goes away.
func readUntilClosed(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
