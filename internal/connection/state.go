package connection

import (
	"github.com/looplab/fsm"
)

// State is a connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateHandshaking  State = "handshaking"
	StateConnected    State = "connected"
	StateBackoff      State = "backoff"
)

// State machine events
const (
	eventConnect     = "connect"
	eventHandshake   = "handshake"
	eventEstablished = "established"
	eventFail        = "fail"
	eventStop        = "stop"
)

func newStateMachine(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		string(StateDisconnected),
		fsm.Events{
			{Name: eventConnect, Src: []string{string(StateDisconnected), string(StateBackoff)}, Dst: string(StateConnecting)},
			{Name: eventHandshake, Src: []string{string(StateConnecting)}, Dst: string(StateHandshaking)},
			{Name: eventEstablished, Src: []string{string(StateConnecting), string(StateHandshaking)}, Dst: string(StateConnected)},
			{Name: eventFail, Src: []string{string(StateConnecting), string(StateHandshaking), string(StateConnected)}, Dst: string(StateBackoff)},
			{Name: eventStop, Src: []string{
				string(StateDisconnected),
				string(StateConnecting),
				string(StateHandshaking),
				string(StateConnected),
				string(StateBackoff),
			}, Dst: string(StateDisconnected)},
		},
		callbacks,
	)
}
