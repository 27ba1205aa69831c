package protocol

import "onepersonleft.ai/internal/sim/model"

// HELLO (client -> server). Token resumes a shared game; when it is empty or
// does not decode, a fresh game starts for Seed.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seed            string `json:"seed,omitempty"`
	Token           string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	State           model.State `json:"state"`
	Token           string      `json:"token"`

	// Notice explains why a HELLO token was not used.
	Notice string `json:"notice,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Action          ActionReq `json:"action"`
}

// TICK (client -> server). Count defaults to 1.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Count           int    `json:"count,omitempty"`
}

// RESET (client -> server)
type ResetMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seed            string `json:"seed,omitempty"`
}

// LOAD (client -> server)
type LoadMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Token           string `json:"token"`
}

// STATE (server -> client) answers ACT, TICK, RESET, LOAD and SHARE.
type StateMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	State           model.State `json:"state"`
	Token           string      `json:"token"`
	Applied         *ActionReq  `json:"applied,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
