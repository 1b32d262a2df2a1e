package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
)

// fakeController records everything the panel asks the engine to do.
type fakeController struct {
	mu          sync.Mutex
	started     []startPayload
	stops       int
	skips       int
	rescans     int
	actions     []schemas.ActionType
	startErr    error
	startCtxErr []error
	state       schemas.SessionState
}

func (f *fakeController) Start(ctx context.Context, goal string, mode schemas.SessionMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, startPayload{Goal: goal, Mode: mode})
	f.startCtxErr = append(f.startCtxErr, ctx.Err())
	return f.startErr
}

func (f *fakeController) Stop(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeController) Skip(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skips++
	return nil
}

func (f *fakeController) Rescan(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescans++
	return nil
}

func (f *fakeController) ActionConfirmed(ctx context.Context, action schemas.ActionType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeController) State() schemas.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type panelHarness struct {
	server     *Server
	controller *fakeController
	conn       *websocket.Conn
}

func newHarness(t *testing.T) *panelHarness {
	t.Helper()
	controller := &fakeController{
		state: schemas.SessionState{ID: "sess-1", Goal: "book a table", Active: true, Step: 2},
	}
	srv, err := NewServer(config.PanelConfig{ListenAddr: "127.0.0.1:0"}, zap.NewNop())
	require.NoError(t, err)
	srv.SetController(controller)

	httpSrv := httptest.NewServer(http.HandlerFunc(srv.handleWS))
	t.Cleanup(httpSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &panelHarness{server: srv, controller: controller, conn: conn}
}

func (h *panelHarness) read(t *testing.T) Envelope {
	t.Helper()
	h.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, h.conn.ReadJSON(&env))
	return env
}

func (h *panelHarness) send(t *testing.T, msgType string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = data
	}
	require.NoError(t, h.conn.WriteJSON(Envelope{Type: msgType, Payload: raw}))
}

func TestConnectSendsInitialState(t *testing.T) {
	h := newHarness(t)

	env := h.read(t)
	assert.Equal(t, msgState, env.Type)

	var state schemas.SessionState
	require.NoError(t, json.Unmarshal(env.Payload, &state))
	assert.Equal(t, "sess-1", state.ID)
	assert.Equal(t, 2, state.Step)
}

func TestStartCommand(t *testing.T) {
	h := newHarness(t)
	h.read(t) // initial state

	h.send(t, msgStart, startPayload{Goal: "book a table", Mode: schemas.ModeLLM})

	require.Eventually(t, func() bool {
		h.controller.mu.Lock()
		defer h.controller.mu.Unlock()
		return len(h.controller.started) == 1
	}, time.Second, 10*time.Millisecond)

	h.controller.mu.Lock()
	defer h.controller.mu.Unlock()
	assert.Equal(t, "book a table", h.controller.started[0].Goal)
	assert.Equal(t, schemas.ModeLLM, h.controller.started[0].Mode)
}

func TestCommandsRunUnderLiveContext(t *testing.T) {
	// The upgrade request's context dies the moment the handler returns, so
	// commands dispatched from the read loop must use the server's own
	// context or every engine call fails with "context canceled".
	h := newHarness(t)
	h.read(t)

	h.send(t, msgStart, startPayload{Goal: "book a table", Mode: schemas.ModeHeuristic})

	require.Eventually(t, func() bool {
		h.controller.mu.Lock()
		defer h.controller.mu.Unlock()
		return len(h.controller.startCtxErr) == 1
	}, time.Second, 10*time.Millisecond)

	h.controller.mu.Lock()
	defer h.controller.mu.Unlock()
	assert.NoError(t, h.controller.startCtxErr[0])
}

func TestControlCommands(t *testing.T) {
	h := newHarness(t)
	h.read(t)

	h.send(t, msgStop, nil)
	h.send(t, msgSkip, nil)
	h.send(t, msgRescan, nil)
	h.send(t, msgActionConfirmed, actionConfirmedPayload{Action: schemas.ActionClick})

	require.Eventually(t, func() bool {
		h.controller.mu.Lock()
		defer h.controller.mu.Unlock()
		return h.controller.stops == 1 && h.controller.skips == 1 &&
			h.controller.rescans == 1 && len(h.controller.actions) == 1
	}, time.Second, 10*time.Millisecond)

	h.controller.mu.Lock()
	defer h.controller.mu.Unlock()
	assert.Equal(t, schemas.ActionClick, h.controller.actions[0])
}

func TestGetStateCommand(t *testing.T) {
	h := newHarness(t)
	h.read(t)

	h.send(t, msgGetState, nil)
	env := h.read(t)
	assert.Equal(t, msgState, env.Type)
}

func TestCommandFailureGoesBackToSender(t *testing.T) {
	h := newHarness(t)
	h.read(t)
	h.controller.mu.Lock()
	h.controller.startErr = assert.AnError
	h.controller.mu.Unlock()

	h.send(t, msgStart, startPayload{Goal: "x"})

	env := h.read(t)
	assert.Equal(t, msgError, env.Type)
	var p errorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.NotEmpty(t, p.Message)
}

func TestUnknownMessageType(t *testing.T) {
	h := newHarness(t)
	h.read(t)

	h.send(t, "reboot", nil)

	env := h.read(t)
	assert.Equal(t, msgError, env.Type)
}

func TestMalformedJSON(t *testing.T) {
	h := newHarness(t)
	h.read(t)

	require.NoError(t, h.conn.WriteMessage(websocket.TextMessage, []byte("{nope")))

	env := h.read(t)
	assert.Equal(t, msgError, env.Type)
}

func TestBroadcasts(t *testing.T) {
	h := newHarness(t)
	h.read(t)

	h.server.State(schemas.SessionState{ID: "sess-2", Step: 4})
	env := h.read(t)
	assert.Equal(t, msgState, env.Type)

	h.server.Error("no clear next step")
	env = h.read(t)
	assert.Equal(t, msgError, env.Type)
	var p errorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "no clear next step", p.Message)

	h.server.Completed()
	env = h.read(t)
	assert.Equal(t, msgCompleted, env.Type)
}

func TestRunRequiresController(t *testing.T) {
	srv, err := NewServer(config.PanelConfig{ListenAddr: "127.0.0.1:0"}, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, srv.Run(context.Background()))
}
