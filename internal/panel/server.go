// File: internal/panel/server.go
// Description: The websocket surface the side panel UI talks to. Translates
// panel commands into session triggers and broadcasts state changes back to
// every connected panel. The server also implements the orchestrator's
// Events interface, so wiring it up is a single assignment.

package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Controller is the slice of the session engine the panel drives.
type Controller interface {
	Start(ctx context.Context, goal string, mode schemas.SessionMode) error
	Stop(ctx context.Context)
	Skip(ctx context.Context) error
	Rescan(ctx context.Context) error
	ActionConfirmed(ctx context.Context, action schemas.ActionType) error
	State() schemas.SessionState
}

// Server owns the listener and the set of connected panels.
type Server struct {
	cfg        config.PanelConfig
	logger     *zap.Logger
	controller Controller
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]*connWriter

	// baseCtx outlives individual requests. Commands must not run under the
	// upgrade request's context: net/http cancels it as soon as the handler
	// returns, long before the connection's read loop is done.
	baseCtx    context.Context
	httpServer *http.Server
}

// connWriter serializes writes to one connection; gorilla allows only a
// single concurrent writer per conn.
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connWriter) write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// NewServer builds the panel server. SetController must be called before
// Run; the controller is injected late to break the construction cycle
// with the orchestrator, which takes the server as its Events sink.
func NewServer(cfg config.PanelConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("cannot initialize panel server with a nil logger")
	}
	return &Server{
		cfg:    cfg,
		logger: logger.Named("panel"),
		conns:  make(map[*websocket.Conn]*connWriter),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The listener binds to loopback; the panel is a local client.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// SetController wires the session engine in.
func (s *Server) SetController(c Controller) {
	s.controller = c
}

// Run serves the websocket endpoint until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.controller == nil {
		return fmt.Errorf("panel server started without a controller")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.baseCtx = ctx
	s.httpServer = &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Panel server listening", zap.String("addr", s.cfg.ListenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		s.closeAll()
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("panel server failed: %w", err)
		}
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)
	writer := &connWriter{conn: conn}

	s.mu.Lock()
	s.conns[conn] = writer
	s.mu.Unlock()
	s.logger.Info("Panel connected", zap.String("remote", conn.RemoteAddr().String()))

	// Every new panel immediately receives the current state.
	writer.write(mustEnvelope(msgState, s.controller.State()))

	go s.readLoop(conn, writer)
}

func (s *Server) readLoop(conn *websocket.Conn, writer *connWriter) {
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		s.logger.Info("Panel disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Panel read error", zap.Error(err))
			}
			return
		}
		s.dispatch(ctx, writer, data)
	}
}

// dispatch handles one inbound command. Command failures go back to the
// sending panel only; state changes fan out to everyone via Events.
func (s *Server) dispatch(ctx context.Context, writer *connWriter, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		writer.write(mustEnvelope(msgError, errorPayload{Message: "malformed message"}))
		return
	}

	var err error
	switch env.Type {
	case msgStart:
		var p startPayload
		if jsonErr := json.Unmarshal(env.Payload, &p); jsonErr != nil {
			err = fmt.Errorf("malformed start payload")
			break
		}
		err = s.controller.Start(ctx, p.Goal, p.Mode)
	case msgStop:
		s.controller.Stop(ctx)
	case msgSkip:
		err = s.controller.Skip(ctx)
	case msgRescan:
		err = s.controller.Rescan(ctx)
	case msgActionConfirmed:
		var p actionConfirmedPayload
		if len(env.Payload) > 0 {
			if jsonErr := json.Unmarshal(env.Payload, &p); jsonErr != nil {
				err = fmt.Errorf("malformed action_confirmed payload")
				break
			}
		}
		err = s.controller.ActionConfirmed(ctx, p.Action)
	case msgGetState:
		writer.write(mustEnvelope(msgState, s.controller.State()))
	default:
		err = fmt.Errorf("unknown message type %q", env.Type)
	}

	if err != nil {
		s.logger.Debug("Panel command failed",
			zap.String("type", env.Type), zap.Error(err))
		writer.write(mustEnvelope(msgError, errorPayload{Message: err.Error()}))
	}
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	writers := make([]*connWriter, 0, len(s.conns))
	for _, w := range s.conns {
		writers = append(writers, w)
	}
	s.mu.Unlock()

	for _, w := range writers {
		if err := w.write(data); err != nil {
			s.logger.Debug("Panel broadcast failed", zap.Error(err))
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}

// State broadcasts the new session state to every connected panel. Part of
// the orchestrator's Events surface.
func (s *Server) State(state schemas.SessionState) {
	s.broadcast(mustEnvelope(msgState, state))
}

// Error broadcasts a user-facing notice.
func (s *Server) Error(message string) {
	s.broadcast(mustEnvelope(msgError, errorPayload{Message: message}))
}

// Completed broadcasts the terminal completion signal.
func (s *Server) Completed() {
	s.broadcast(mustEnvelope(msgCompleted, nil))
}
