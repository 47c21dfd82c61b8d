package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys
const (
	txtProfile = "profile"
	txtDevice  = "device"
	txtVersion = "version"
	txtTLS     = "tls"
)

// Bridge is a budsctl bridge found on the network.
type Bridge struct {
	// Instance is the advertised service instance name.
	Instance string
	Hostname string
	IP       string
	Port     int

	// Profile and Device describe the earbuds the bridge is serving.
	Profile string
	Device  string
	Version string
	TLS     bool

	// Metadata holds every TXT record.
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (b *Bridge) String() string {
	device := b.Profile
	if device == "" {
		device = "no device"
	}
	return fmt.Sprintf("%s (%s) at %s", b.Instance, device, b.Addr())
}

// Addr returns host:port.
func (b *Bridge) Addr() string {
	return net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// URL returns the websocket endpoint of the bridge.
func (b *Bridge) URL() string {
	scheme := "ws://"
	if b.TLS {
		scheme = "wss://"
	}
	return scheme + b.Addr() + "/ws"
}

// GetMetadata returns a TXT value, or "" when absent.
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

// Info is what a bridge advertises about itself.
type Info struct {
	Profile string
	Device  string
	Version string
	TLS     bool
}

func (i Info) txt() []string {
	var out []string
	if i.Profile != "" {
		out = append(out, txtProfile+"="+i.Profile)
	}
	if i.Device != "" {
		out = append(out, txtDevice+"="+i.Device)
	}
	if i.Version != "" {
		out = append(out, txtVersion+"="+i.Version)
	}
	if i.TLS {
		out = append(out, txtTLS+"=1")
	}
	return out
}
