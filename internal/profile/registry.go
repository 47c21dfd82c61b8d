package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/protocol"
	"go.uber.org/zap"
)

// Builder creates a profile with a fresh set of handlers.
type Builder func() *Profile

type pattern struct {
	substr string
	build  Builder
}

// Registry holds the known profiles.
type Registry struct {
	exact    map[string]Builder
	patterns []pattern
	fallback Builder
}

// NewRegistry returns an empty registry that falls back to fallback.
func NewRegistry(fallback Builder) *Registry {
	return &Registry{
		exact:    make(map[string]Builder),
		fallback: fallback,
	}
}

// Register binds one or more exact device names to a builder.
func (r *Registry) Register(build Builder, names ...string) {
	for _, name := range names {
		r.exact[name] = build
	}
}

// RegisterPattern binds a substring to a builder. Patterns are tried in
// registration order, so more specific ones must come first.
func (r *Registry) RegisterPattern(substr string, build Builder) {
	r.patterns = append(r.patterns, pattern{substr: substr, build: build})
}

// Match returns the profile for a device name. It never returns nil.
func (r *Registry) Match(name, address string) *Profile {
	p, how := r.lookup(name)
	logging.Debug("Matched profile",
		zap.String("device", name),
		zap.String("address", address),
		zap.String("profile", p.Name),
		zap.String("match", how),
	)
	return p
}

// Known reports whether name matches a profile other than the probe.
func (r *Registry) Known(name string) bool {
	_, how := r.lookup(name)
	return how != "probe"
}

func (r *Registry) lookup(name string) (*Profile, string) {
	if build, ok := r.exact[name]; ok {
		return build(), "exact"
	}
	for _, pat := range r.patterns {
		if strings.Contains(name, pat.substr) {
			return pat.build(), "pattern"
		}
	}
	return r.fallback(), "probe"
}

// Names lists every exact name and pattern in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.exact)+len(r.patterns))
	for name := range r.exact {
		out = append(out, name)
	}
	for _, pat := range r.patterns {
		out = append(out, "*"+pat.substr+"*")
	}
	sort.Strings(out)
	return out
}

// Validate builds every profile and checks that its handlers match its
// transport and that command groups are unambiguous.
func (r *Registry) Validate() error {
	builders := []Builder{r.fallback}
	for _, b := range r.exact {
		builders = append(builders, b)
	}
	for _, pat := range r.patterns {
		builders = append(builders, pat.build)
	}

	for _, build := range builders {
		if err := validateProfile(build()); err != nil {
			return err
		}
	}
	return nil
}

func validateProfile(p *Profile) error {
	switch p.Transport.Kind {
	case RFCOMM:
		if p.Transport.Channel == 0 || p.Transport.Channel > 30 {
			return fmt.Errorf("profile %q: invalid rfcomm channel %d", p.Name, p.Transport.Channel)
		}
		if p.Handshake {
			return fmt.Errorf("profile %q: handshake requires l2cap", p.Name)
		}
	case L2CAP:
		if p.Transport.PSM == 0 {
			return fmt.Errorf("profile %q: missing psm", p.Name)
		}
	default:
		return fmt.Errorf("profile %q: unknown transport %v", p.Name, p.Transport.Kind)
	}

	groups := make(map[string]bool)
	for _, h := range p.Handlers {
		if _, ok := h.(device.Setter); ok {
			if groups[h.Name()] {
				return fmt.Errorf("profile %q: command group %q is ambiguous", p.Name, h.Name())
			}
			groups[h.Name()] = true
		}
		if id, ok := foreignClaim(h, p.Transport.Kind); ok {
			return fmt.Errorf("profile %q: handler %s claims %s over %v", p.Name, h.Name(), id, p.Transport.Kind)
		}
	}
	return nil
}

// foreignClaim looks for an id of the other protocol family claimed by h.
func foreignClaim(h device.Handler, kind Kind) (protocol.CommandID, bool) {
	if kind == RFCOMM {
		for op := 0; op < 256; op++ {
			if id := protocol.General(byte(op)); h.Claims(id) {
				return id, true
			}
			if id := protocol.Control(byte(op)); h.Claims(id) {
				return id, true
			}
		}
		return protocol.CommandID{}, false
	}
	for svc := 0; svc < 256; svc++ {
		for cmd := 0; cmd < 256; cmd++ {
			if id := protocol.Framed(byte(svc), byte(cmd)); h.Claims(id) {
				return id, true
			}
		}
	}
	return protocol.CommandID{}, false
}
