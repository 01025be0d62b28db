package layout

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ShellKind enumerates the case enclosure styles.
type ShellKind int

const (
	ShellBasic ShellKind = iota // flat bottom, walls follow the key outline
	ShellBlock                  // rectangular, axis-aligned walls
	ShellTilt                   // tilted top on a separate bottom shell
)

func (k ShellKind) String() string {
	switch k {
	case ShellBasic:
		return "basic"
	case ShellBlock:
		return "block"
	case ShellTilt:
		return "tilt"
	default:
		return "unknown"
	}
}

// Shell is the interface for kind-specific shell parameters.
type Shell interface {
	Kind() ShellKind
}

// BasicShell is a flat case.
type BasicShell struct {
	Lip bool `json:"lip"` // raised rim around the plate
}

func (BasicShell) Kind() ShellKind { return ShellBasic }

// BlockShell is a rectangular case.
type BlockShell struct {
	BottomThickness float64 `json:"bottom_thickness,omitempty"`
}

func (BlockShell) Kind() ShellKind { return ShellBlock }

// TiltShell is a case whose plate is tilted relative to the desk.
// Either Axis or Angle determines the tilt; Axis wins when non-nil.
type TiltShell struct {
	Angle   float64 `json:"angle"`          // degrees, tilting toward +X
	Axis    *v3.Vec `json:"axis,omitempty"` // explicit up vector of the plate
	RaiseBy float64 `json:"raise_by"`       // extra height under the lowest wall
}

func (TiltShell) Kind() ShellKind { return ShellTilt }
