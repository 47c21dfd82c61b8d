//go:build !linux

package transport

import (
	"context"
	"time"

	"github.com/muurk/budsctl/internal/profile"
)

func dialSocket(context.Context, Address, profile.Transport, time.Duration) (Link, error) {
	return nil, ErrUnsupported
}
