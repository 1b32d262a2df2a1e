package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// stubClient returns a canned response (or error) and records the request.
type stubClient struct {
	response string
	err      error
	lastReq  schemas.CompletionRequest
}

func (c *stubClient) Complete(_ context.Context, req schemas.CompletionRequest) (string, error) {
	c.lastReq = req
	return c.response, c.err
}

// slowClient blocks until its context expires.
type slowClient struct{}

func (c *slowClient) Complete(ctx context.Context, _ schemas.CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func planSnapshot() *schemas.PageSnapshot {
	return &schemas.PageSnapshot{
		URL:   "https://acme.test/signup",
		Title: "Sign up",
		Elements: []schemas.PageElement{
			{Index: 0, Tag: "input", InputType: "email", Label: "Email", Locator: "#email", IsInput: true, InViewport: true},
			{Index: 1, Tag: "button", Text: "Create account", Locator: "#create", InViewport: true},
		},
	}
}

func TestLLMPlanHappyPath(t *testing.T) {
	client := &stubClient{
		response: "<thinking>Start by entering your email address.</thinking>\n<action>type(0)",
	}
	p := NewLLM(client, zap.NewNop())

	step, err := p.Plan(context.Background(), planSnapshot(), newState("sign up for an account"))
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, schemas.ActionInput, step.Action)
	assert.Equal(t, "#email", step.TargetLocator)
	// The model's rationale replaces the synthesized instruction.
	assert.Equal(t, "Start by entering your email address.", step.Instruction)

	// The transport request carries the constrained-output settings.
	assert.Equal(t, float32(0), client.lastReq.Temperature)
	assert.Equal(t, []string{"</action>"}, client.lastReq.Stop)
	assert.Contains(t, client.lastReq.Prompt, "sign up for an account")
	assert.True(t, strings.Contains(client.lastReq.System, "<action>"))
}

func TestLLMPlanDeclines(t *testing.T) {
	testCases := []struct {
		name   string
		client schemas.LLMClient
		state  *schemas.SessionState
	}{
		{
			name:   "transport error",
			client: &stubClient{err: errors.New("connect refused")},
			state:  newState("sign up"),
		},
		{
			name:   "unparseable response",
			client: &stubClient{response: "I think you should click something."},
			state:  newState("sign up"),
		},
		{
			name:   "wait verb",
			client: &stubClient{response: "<action>wait()</action>"},
			state:  newState("sign up"),
		},
		{
			name:   "element id not in snapshot",
			client: &stubClient{response: "<action>click(99)</action>"},
			state:  newState("sign up"),
		},
		{
			name:   "repeated target",
			client: &stubClient{response: "<action>click(1)</action>"},
			state: newState("sign up",
				schemas.ActionRecord{Step: 1, Action: schemas.ActionClick, TargetLocator: "#create", Text: "Create account"},
			),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewLLM(tc.client, zap.NewNop())
			step, err := p.Plan(context.Background(), planSnapshot(), tc.state)
			assert.NoError(t, err)
			assert.Nil(t, step)
		})
	}
}

func TestLLMPlanVerbIsAdvisory(t *testing.T) {
	// The model votes click on a text input; the element's own type decides
	// and the step comes back as a type action.
	p := NewLLM(&stubClient{response: "<action>click(0)</action>"}, zap.NewNop())

	step, err := p.Plan(context.Background(), planSnapshot(), newState("sign up"))
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, schemas.ActionInput, step.Action)
	assert.Equal(t, "#email", step.TargetLocator)
}

func TestLLMPlanRejectsTargetOutsidePanel(t *testing.T) {
	snap := planSnapshot()
	snap.HasActivePanel = true
	snap.Elements = append(snap.Elements, schemas.PageElement{
		Index: 2, Tag: "button", Text: "Confirm", Locator: "#confirm", InViewport: true, InActivePanel: true,
	})

	p := NewLLM(&stubClient{response: "<action>click(1)</action>"}, zap.NewNop())
	step, err := p.Plan(context.Background(), snap, newState("sign up"))
	assert.NoError(t, err)
	assert.Nil(t, step)
}

func TestLLMPlanTimeout(t *testing.T) {
	p := NewLLM(&slowClient{}, zap.NewNop(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	step, err := p.Plan(context.Background(), planSnapshot(), newState("sign up"))
	assert.NoError(t, err)
	assert.Nil(t, step)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLLMPlanEmptySnapshot(t *testing.T) {
	p := NewLLM(&stubClient{response: "<action>click(0)</action>"}, zap.NewNop())
	step, err := p.Plan(context.Background(), &schemas.PageSnapshot{}, newState("sign up"))
	assert.NoError(t, err)
	assert.Nil(t, step)
}
