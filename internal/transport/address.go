package transport

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is a Bluetooth device address in display order.
type Address [6]byte

// ParseAddress parses "AA:BB:CC:DD:EE:FF". Dashes and bare hex are also
// accepted.
func ParseAddress(s string) (Address, error) {
	var a Address
	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(clean) != 12 {
		return a, fmt.Errorf("invalid bluetooth address %q", s)
	}
	if _, err := hex.Decode(a[:], []byte(clean)); err != nil {
		return a, fmt.Errorf("invalid bluetooth address %q: %w", s, err)
	}
	return a, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == Address{}
}

// reversed returns the address in the little-endian order the kernel
// expects in socket addresses.
func (a Address) reversed() [6]byte {
	var out [6]byte
	for i := range a {
		out[i] = a[5-i]
	}
	return out
}
