package layout

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/cuttlecase/pkg/trsf"
)

// KeyType names the component mounted at a key position.
type KeyType string

const (
	KeyMX        KeyType = "mx"
	KeyMXBetter  KeyType = "mx-better"
	KeyChoc      KeyType = "choc"
	KeyAlps      KeyType = "alps"
	KeyEC11      KeyType = "ec11"      // rotary encoder
	KeyTrackball KeyType = "trackball" // trackball socket
	KeyBlank     KeyType = "blank"     // spacer, no component
)

// DefaultTrackballRadius is the radius of a 34 mm trackball in mm.
const DefaultTrackballRadius = 17.5

// Keycap describes the cap sitting on a switch.
type Keycap struct {
	Profile string `json:"profile"`          // e.g. "dsa", "mt3", "cherry"
	Row     int    `json:"row"`              // sculpted row, 1..5 for non-uniform profiles
	Letter  string `json:"letter,omitempty"` // legend, used for mirrored halves
}

// Key is one placed input element.
type Key struct {
	Type     KeyType   `json:"type"`
	Position trsf.Trsf `json:"-"`
	// Aspect is width over height. Values below 1 mean the key is rotated
	// by 90 degrees. Zero is treated as 1.
	Aspect float64 `json:"aspect"`
	Keycap *Keycap `json:"keycap,omitempty"`
	// Size overrides the footprint of a blank key in mm.
	Size *v2.Vec `json:"size,omitempty"`
	// Radius overrides the trackball radius in mm.
	Radius float64 `json:"radius,omitempty"`
}

// AspectOrDefault returns the key aspect with zero mapped to 1.
func (k Key) AspectOrDefault() float64 {
	if k.Aspect == 0 {
		return 1
	}
	return k.Aspect
}

// Rotated reports whether the key is turned 90 degrees.
func (k Key) Rotated() bool {
	return k.AspectOrDefault() < 1
}

// HasKeycap reports whether the key carries a keycap.
func (k Key) HasKeycap() bool {
	return k.Keycap != nil && k.Type != KeyTrackball && k.Type != KeyEC11 && k.Type != KeyBlank
}

// TrackballRadius returns the configured or default trackball radius.
func (k Key) TrackballRadius() float64 {
	if k.Radius > 0 {
		return k.Radius
	}
	return DefaultTrackballRadius
}
