// Package proxy bridges a developer's DevTools frontend to the Chrome
// instance driving the current search, so a search can be watched live.
package proxy

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PortSource reports the debug port of the browser behind the active
// search, if one is running. Satisfied by *portal.Runner.
type PortSource interface {
	ActivePort() (string, bool)
}

type Server struct {
	ports PortSource
}

func NewServer(ports PortSource) *Server {
	return &Server{ports: ports}
}

// HandleDebugConnection upgrades the request and proxies CDP traffic
// to the browser behind the active search. Only an in-flight search
// has a browser to attach to.
func (s *Server) HandleDebugConnection(w http.ResponseWriter, r *http.Request) {
	port, ok := s.ports.ActivePort()
	if !ok {
		http.Error(w, "No search in progress", http.StatusNotFound)
		return
	}

	clientConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[proxy] Failed to upgrade connection: %v", err)
		return
	}
	defer clientConn.Close()

	// browserless/chrome speaks CDP on its root WebSocket.
	chromeURL := fmt.Sprintf("ws://localhost:%s", port)
	log.Printf("[proxy] Client attaching to search browser at %s", chromeURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chromeConn, _, err := websocket.DefaultDialer.DialContext(ctx, chromeURL, nil)
	if err != nil {
		log.Printf("[proxy] Failed to connect to Chrome: %v", err)
		clientConn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Error connecting: %v", err)))
		return
	}
	defer chromeConn.Close()

	errChan := make(chan error, 2)

	go func() {
		errChan <- s.proxyMessages(clientConn, chromeConn, "client→chrome")
	}()
	go func() {
		errChan <- s.proxyMessages(chromeConn, clientConn, "chrome→client")
	}()

	// Either direction closing ends the attachment.
	err = <-errChan
	if err != nil && err != io.EOF {
		log.Printf("[proxy] Debug session ended: %v", err)
	}
}

func (s *Server) proxyMessages(src, dst *websocket.Conn, direction string) error {
	for {
		messageType, message, err := src.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[proxy] WebSocket error (%s): %v", direction, err)
			}
			return err
		}

		if err := dst.WriteMessage(messageType, message); err != nil {
			log.Printf("[proxy] Failed to write message (%s): %v", direction, err)
			return err
		}
	}
}
