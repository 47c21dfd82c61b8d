package bridge

import (
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/device"
)

// Message types
const (
	TypeSnapshot = "snapshot"
	TypeChange   = "change"
	TypeState    = "state"
	TypeCommand  = "command"
	TypeResult   = "result"
	TypeError    = "error"
)

// Message is the single JSON envelope used in both directions.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	Properties map[string]map[string]string `json:"properties,omitempty"`
	Status     *connection.Status           `json:"status,omitempty"`

	Kind     string `json:"kind,omitempty"`
	Category string `json:"category,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`

	Group string `json:"group,omitempty"`
	Prop  string `json:"prop,omitempty"`

	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// Command extracts the device command from a command message.
func (m Message) Command() device.Command {
	return device.Command{Group: m.Group, Prop: m.Prop, Value: m.Value}
}

func resultMessage(id string, err error) Message {
	if err != nil {
		return Message{Type: TypeResult, ID: id, Error: err.Error()}
	}
	return Message{Type: TypeResult, ID: id, OK: true}
}
