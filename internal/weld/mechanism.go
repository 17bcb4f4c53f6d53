package weld

import (
	"fmt"
	"strings"
)

// Mechanism is how a weld is realized in the host. Every member of a
// connected group carries the same mechanism; isolated entities are Undefined.
type Mechanism uint8

const (
	MechanismUndefined Mechanism = iota
	MechanismHierarchy           // ownership-tree reparenting
	MechanismPhysics             // rigid constraint between bodies
)

func (m Mechanism) String() string {
	switch m {
	case MechanismUndefined:
		return "undefined"
	case MechanismHierarchy:
		return "hierarchy"
	case MechanismPhysics:
		return "physics"
	default:
		return fmt.Sprintf("mechanism(%d)", uint8(m))
	}
}

// ParseMechanism accepts the names used in config and scene files.
func ParseMechanism(s string) (Mechanism, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "undefined", "default":
		return MechanismUndefined, nil
	case "hierarchy", "hierarchy_based", "parent":
		return MechanismHierarchy, nil
	case "physics", "physics_based", "joint":
		return MechanismPhysics, nil
	default:
		return MechanismUndefined, fmt.Errorf("unknown weld mechanism %q", s)
	}
}

// Mode is the derived capability of a weldable entity.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeAttachableOnly
	ModeReceivableOnly
	ModeBoth
)

func ModeOf(canAttach, canReceive bool) Mode {
	switch {
	case canAttach && canReceive:
		return ModeBoth
	case canAttach:
		return ModeAttachableOnly
	case canReceive:
		return ModeReceivableOnly
	default:
		return ModeNone
	}
}

func (m Mode) CanAttach() bool  { return m == ModeAttachableOnly || m == ModeBoth }
func (m Mode) CanReceive() bool { return m == ModeReceivableOnly || m == ModeBoth }

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeAttachableOnly:
		return "attach"
	case ModeReceivableOnly:
		return "receive"
	case ModeBoth:
		return "both"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return ModeBoth, nil
	case "none":
		return ModeNone, nil
	case "attach", "attachable", "attachable_only":
		return ModeAttachableOnly, nil
	case "receive", "receivable", "receivable_only":
		return ModeReceivableOnly, nil
	default:
		return ModeNone, fmt.Errorf("unknown weld mode %q", s)
	}
}
