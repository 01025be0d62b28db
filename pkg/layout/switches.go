package layout

// SwitchInfo holds the physical constants of a key component in mm.
type SwitchInfo struct {
	Width  float64 // footprint along the key's local X
	Length float64 // footprint along the key's local Y
	Height float64 // distance from the plate top to the keycap seat
	Depth  float64 // socket depth below the plate top
}

var switchTable = map[KeyType]SwitchInfo{
	KeyMX:        {Width: 18, Length: 18, Height: 6.6, Depth: 8},
	KeyMXBetter:  {Width: 18, Length: 18, Height: 6.6, Depth: 8},
	KeyChoc:      {Width: 17.5, Length: 16.5, Height: 3, Depth: 5.5},
	KeyAlps:      {Width: 18.6, Length: 17, Height: 6, Depth: 7},
	KeyEC11:      {Width: 14, Length: 14, Height: 7, Depth: 10},
	KeyTrackball: {Width: 40, Length: 40, Height: 0, Depth: 20},
	KeyBlank:     {Width: 18, Length: 18, Height: 0, Depth: 0},
}

// DefaultSwitch is used for key types that are not in the table.
var DefaultSwitch = SwitchInfo{Width: 18, Length: 18, Height: 6.6, Depth: 8}

// Switch returns the constants for t. Unknown types get DefaultSwitch and
// ok is false.
func Switch(t KeyType) (info SwitchInfo, ok bool) {
	info, ok = switchTable[t]
	if !ok {
		return DefaultSwitch, false
	}
	return info, true
}
