package infra

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

// Websocket upgrades requests and keeps connections alive with ping frames
type Websocket struct {
	upgrader websocket.Upgrader
}

// NewWebsocket create a Websocket with permissive origin checking, CORS is
// enforced by the http middleware chain
func NewWebsocket() *Websocket {
	return &Websocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			HandshakeTimeout: 3 * time.Second,
		},
	}
}

// Serve upgrade the request and call handler until it returns an error or the
// peer goes away. It blocks for the connection lifetime, so handler may use
// values captured from the echo context.
func (ws *Websocket) Serve(c echo.Context, handler func(*websocket.Conn) error) error {
	conn, err := ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// upgrader already replied with an http error
		return nil
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		heartbeatRoutine(conn, done)
	}()
	defer wg.Wait()
	defer close(done)

	for {
		if err := handler(conn); err != nil {
			return nil
		}
	}
}

func heartbeatRoutine(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
