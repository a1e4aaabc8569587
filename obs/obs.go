// Package obs mirrors bus traffic to websocket observers. It is a pure
// debugging aid: the scheduler never depends on it and dropped frames never
// affect tick correctness.
package obs

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"terrarium/bus"
	"terrarium/logging"
)

const writeTimeout = 5 * time.Second

// Server fans bus envelopes out to connected websocket clients.
type Server struct {
	log      logging.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	subs []<-chan bus.Envelope
}

// NewServer subscribes to the given topics on b.
func NewServer(b *bus.Bus, topics []string, log logging.Logger) *Server {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	s := &Server{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]struct{}),
	}
	for _, t := range topics {
		s.subs = append(s.subs, b.Subscribe(t, 64))
	}
	return s
}

// Run pumps bus envelopes to clients until ctx is cancelled or the bus
// closes. Intended to be registered via Scheduler.Spawn.
func (s *Server) Run(ctx context.Context) error {
	cases := make(chan bus.Envelope, 64)
	var wg sync.WaitGroup
	for _, sub := range s.subs {
		wg.Add(1)
		go func(sub <-chan bus.Envelope) {
			defer wg.Done()
			for env := range sub {
				select {
				case cases <- env:
				case <-ctx.Done():
					return
				}
			}
		}(sub)
	}
	go func() { wg.Wait(); close(cases) }()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return ctx.Err()
		case env, ok := <-cases:
			if !ok {
				s.closeAll()
				return nil
			}
			s.broadcast(env)
		}
	}
}

// Handler upgrades HTTP requests to observer websocket connections.
// Observers are write-only; anything they send is discarded.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("observer upgrade failed", "error", err)
			return
		}
		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()
		s.log.Info("observer connected", "remote", conn.RemoteAddr().String())

		go func() {
			defer s.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

func (s *Server) broadcast(env bus.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(env); err != nil {
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		_ = conn.Close()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.Close()
		delete(s.clients, conn)
	}
}
