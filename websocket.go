package bme280

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketServer pushes every broadcast message as JSON to all connected
// clients.
type WebSocketServer struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan interface{}
	upgrader   websocket.Upgrader
	clientsMux sync.Mutex
	log        logrus.FieldLogger
}

func NewWebSocketServer(log logrus.FieldLogger) *WebSocketServer {
	return &WebSocketServer{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan interface{}, 16),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// Run delivers broadcasts until ctx is done, then disconnects all clients.
func (s *WebSocketServer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.clientsMux.Lock()
			for client := range s.clients {
				client.Close()
				delete(s.clients, client)
			}
			s.clientsMux.Unlock()
			return
		case msg := <-s.broadcast:
			s.send(msg)
		}
	}
}

func (s *WebSocketServer) send(msg interface{}) {
	message, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("failed to marshal message: %v", err)
		return
	}

	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			s.log.Warnf("websocket write failed: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	s.clientsMux.Lock()
	s.clients[ws] = true
	s.clientsMux.Unlock()

	s.log.Infof("websocket client %s connected", r.RemoteAddr)
	defer func() {
		s.clientsMux.Lock()
		delete(s.clients, ws)
		s.clientsMux.Unlock()
		s.log.Infof("websocket client %s disconnected", r.RemoteAddr)
	}()

	for {
		// Clients never send anything; reading detects the close.
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast queues msg, dropping it when the queue is full.
func (s *WebSocketServer) Broadcast(msg interface{}) {
	select {
	case s.broadcast <- msg:
	default:
		s.log.Warn("websocket broadcast queue full, dropping message")
	}
}
