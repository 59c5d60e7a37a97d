package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careops/transport-portal/internal/platform/eventbus"
)

func TestServeWS_DeliversPublishedEvents(t *testing.T) {
	bus := eventbus.New(zerolog.Nop())

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return ServeWS(c, bus, nil, zerolog.Nop())
	})

	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the session a moment to register with the bus.
	deadline := time.Now().Add(time.Second)
	for bus.SubscriberCount(eventbus.Created) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(eventbus.Created, record{ID: "abc", Status: "WAITING"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != eventbus.Created {
		t.Fatalf("expected Created, got %s", msg.Type)
	}
}

func TestServeWS_DisconnectTearsDownSession(t *testing.T) {
	bus := eventbus.New(zerolog.Nop())

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return ServeWS(c, bus, nil, zerolog.Nop())
	})

	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for bus.SubscriberCount(eventbus.Created) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for bus.SubscriberCount(eventbus.Created) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not unregistered after client disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
