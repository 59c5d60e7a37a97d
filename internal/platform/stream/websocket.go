package stream

import (
	"net/http"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careops/transport-portal/internal/platform/eventbus"
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// ServeWS upgrades the request to a websocket, creates a Session with the
// given filter, and pumps events until the client disconnects. Write
// failures are logged and swallowed; only the transport's own disconnect
// signal (a read error) tears the session down.
func ServeWS(c echo.Context, bus *eventbus.Bus, filter Filter, logger zerolog.Logger) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	session := NewSession(bus, filter, logger)

	go writePump(session, ws, logger)
	go readPump(session, ws)

	return nil
}

// readPump discards inbound frames and exists only to observe the close
// handshake. When the client disconnects the session is torn down.
func readPump(session *Session, ws *gorillawebsocket.Conn) {
	defer func() {
		session.Close()
		ws.Close()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(session *Session, ws *gorillawebsocket.Conn, logger zerolog.Logger) {
	defer ws.Close()

	for message := range session.Send() {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			// Client is likely gone; readPump drives teardown.
			logger.Debug().Err(err).Msg("stream: write failed")
		}
	}
}
