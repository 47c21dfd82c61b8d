package protocol

import "fmt"

// Family identifies which wire protocol a CommandID belongs to.
type Family uint8

const (
	FamilyFramed    Family = iota + 1 // Huawei/HONOR framed protocol
	FamilyAccessory                   // Apple accessory protocol
)

// String returns the short family name.
func (f Family) String() string {
	switch f {
	case FamilyFramed:
		return "framed"
	case FamilyAccessory:
		return "aap"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// Accessory namespaces used when lifting AAP messages into CommandIDs.
const (
	NamespaceGeneral byte = 0xAA // general opcodes
	NamespaceControl byte = 0xA9 // control command subtypes
)

// CommandID identifies a command independently of its wire family.
//
// For framed commands Hi is the service byte and Lo the command byte. For
// accessory commands Hi is the namespace and Lo the opcode or subtype.
type CommandID struct {
	Family Family
	Hi     byte
	Lo     byte
}

// Framed returns the identifier of a framed command.
func Framed(service, command byte) CommandID {
	return CommandID{Family: FamilyFramed, Hi: service, Lo: command}
}

// General returns the identifier of a general accessory opcode.
func General(opcode byte) CommandID {
	return CommandID{Family: FamilyAccessory, Hi: NamespaceGeneral, Lo: opcode}
}

// Control returns the identifier of an accessory control subtype.
func Control(subtype byte) CommandID {
	return CommandID{Family: FamilyAccessory, Hi: NamespaceControl, Lo: subtype}
}

// IsFramed reports whether the id belongs to the framed protocol.
func (c CommandID) IsFramed() bool { return c.Family == FamilyFramed }

// IsAccessory reports whether the id belongs to the accessory protocol.
func (c CommandID) IsAccessory() bool { return c.Family == FamilyAccessory }

// String renders framed ids as "2B:2A" and accessory ids as
// "aap.general:04" or "aap.control:0D".
func (c CommandID) String() string {
	switch c.Family {
	case FamilyFramed:
		return fmt.Sprintf("%02X:%02X", c.Hi, c.Lo)
	case FamilyAccessory:
		switch c.Hi {
		case NamespaceGeneral:
			return fmt.Sprintf("aap.general:%02X", c.Lo)
		case NamespaceControl:
			return fmt.Sprintf("aap.control:%02X", c.Lo)
		}
		return fmt.Sprintf("aap.%02X:%02X", c.Hi, c.Lo)
	default:
		return fmt.Sprintf("unknown:%02X:%02X", c.Hi, c.Lo)
	}
}
