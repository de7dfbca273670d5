// Package channel carries one-question-one-answer exchanges over websocket
// connections. Each text frame received is one query and gets exactly one
// text frame back, in arrival order.
package channel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Answerer answers one query.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// AnswerFunc adapts a function to the Answerer interface.
type AnswerFunc func(ctx context.Context, question string) (string, error)

// Answer calls f(ctx, question).
func (f AnswerFunc) Answer(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Answerer Answerer
	Logger   zerolog.Logger

	// ReadLimit caps the size of an inbound frame in bytes (default: 64 KiB).
	ReadLimit int64

	// WriteTimeout bounds writing a reply (default: 10s).
	WriteTimeout time.Duration
}

// Server is an http.Handler that upgrades requests to websocket connections.
type Server struct {
	answerer     Answerer
	logger       zerolog.Logger
	readLimit    int64
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]context.CancelFunc
}

// NewServer creates a channel server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.ReadLimit == 0 {
		cfg.ReadLimit = 64 << 10
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Server{
		answerer:     cfg.Answerer,
		logger:       cfg.Logger,
		readLimit:    cfg.ReadLimit,
		writeTimeout: cfg.WriteTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]context.CancelFunc),
	}
}

// ServeHTTP upgrades the connection and serves queries until the peer
// disconnects, sends a non-text frame, or an answer fails.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(s.readLimit)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	s.track(conn, cancel)
	defer func() {
		s.untrack(conn)
		cancel()
		conn.Close()
	}()

	log := s.logger.With().Str("remote_addr", r.RemoteAddr).Logger()
	log.Info().Msg("channel connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("channel read failed")
			}
			log.Info().Msg("channel disconnected")
			return
		}
		if msgType != websocket.TextMessage {
			s.closeWith(conn, websocket.CloseUnsupportedData, "text frames only")
			return
		}

		start := time.Now()
		answer, err := s.answerer.Answer(ctx, string(data))
		if err != nil {
			log.Error().Err(err).Dur("duration", time.Since(start)).Msg("channel query failed")
			s.closeWith(conn, websocket.CloseInternalServerErr, "generation unavailable")
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(answer)); err != nil {
			log.Warn().Err(err).Msg("channel write failed")
			return
		}
		log.Info().Dur("duration", time.Since(start)).Int("question_bytes", len(data)).Msg("channel query answered")
	}
}

// ActiveConnections returns the number of open connections.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// CloseAll sends a going-away close frame to every connection and cancels
// in-flight answers.
func (s *Server) CloseAll() {
	s.mu.Lock()
	conns := make(map[*websocket.Conn]context.CancelFunc, len(s.conns))
	for c, cancel := range s.conns {
		conns[c] = cancel
	}
	s.mu.Unlock()

	for c, cancel := range conns {
		cancel()
		s.closeWith(c, websocket.CloseGoingAway, "server shutting down")
		c.Close()
	}
}

func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (s *Server) track(conn *websocket.Conn, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = cancel
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}
