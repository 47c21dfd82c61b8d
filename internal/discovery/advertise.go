package discovery

import (
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/budsctl/internal/logging"
	"go.uber.org/zap"
)

// Advertiser keeps a bridge registered on the network.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
	info   Info
}

// Advertise registers instance on port. The registration lasts until
// Shutdown.
func Advertise(instance string, port int, info Info) (*Advertiser, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, info.txt(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising bridge",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: server, info: info}, nil
}

// Update replaces the advertised TXT records when they changed.
func (a *Advertiser) Update(info Info) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil || info == a.info {
		return
	}
	a.info = info
	a.server.SetText(info.txt())
	logging.Debug("Updated bridge advertisement", zap.Strings("txt", info.txt()))
}

// Shutdown withdraws the advertisement. It is safe to call twice.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
