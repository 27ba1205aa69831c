// Package protocol is the JSON wire format between a browser or bot client
// and the game server. Every message carries "type"; the server routes on it.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeAct     = "ACT"
	TypeTick    = "TICK"
	TypeReset   = "RESET"
	TypeLoad    = "LOAD"
	TypeShare   = "SHARE"
	TypeState   = "STATE"
	TypeError   = "ERROR"
)

// MaxTickCount bounds a single TICK request.
const MaxTickCount = 520

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
