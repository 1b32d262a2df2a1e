// File: internal/panel/messages.go

package panel

import (
	"encoding/json"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

// Envelope is the framing for every panel message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types (panel -> engine).
const (
	msgStart           = "start"
	msgStop            = "stop"
	msgSkip            = "skip"
	msgRescan          = "rescan"
	msgGetState        = "get_state"
	msgActionConfirmed = "action_confirmed"
)

// Outbound message types (engine -> panel).
const (
	msgState     = "state"
	msgError     = "error"
	msgCompleted = "completed"
)

type startPayload struct {
	Goal string              `json:"goal"`
	Mode schemas.SessionMode `json:"mode,omitempty"`
}

type actionConfirmedPayload struct {
	Action schemas.ActionType `json:"action,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func mustEnvelope(msgType string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	out, _ := json.Marshal(Envelope{Type: msgType, Payload: raw})
	return out
}
