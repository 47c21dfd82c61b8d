package connection

import (
	"strconv"
	"time"

	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/store"
)

// Status is a snapshot of the manager.
type Status struct {
	State   State  `json:"state"`
	Address string `json:"address"`
	Profile string `json:"profile,omitempty"`
	// Attempt counts failures since the last established session.
	Attempt   int           `json:"attempt"`
	NextRetry time.Duration `json:"next_retry,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	// Err is the error behind LastError, for classification.
	Err error `json:"-"`
}

// Connected reports whether a session is active.
func (s Status) Connected() bool {
	return s.State == StateConnected
}

// writeState mirrors the status into the state category.
func writeState(st *store.Store, s Status) {
	st.PutAll(device.CategoryState, map[string]string{
		"connection": string(s.State),
		"profile":    s.Profile,
		"address":    s.Address,
		"attempt":    strconv.Itoa(s.Attempt),
		"last_error": s.LastError,
	})
}
