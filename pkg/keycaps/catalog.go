// Package keycaps holds the keycap profile catalog and the cache that
// serves UV-mapped keycap meshes fetched from an asset store.
package keycaps

import (
	"sort"
	"strconv"

	"github.com/chazu/cuttlecase/pkg/layout"
)

// Aspects are the canonical keycap widths, in units.
var Aspects = []float64{1, 1.25, 1.5, 2}

// Rows are the sculpted rows keycap assets exist for.
var Rows = []int{0, 1, 2, 3, 4, 5}

// uniform profiles have the same shape on every row.
var uniform = map[string]bool{"xda": true, "dsa": true, "choc": true}

// Info is the seat depth and tilt of a keycap, in mm and degrees.
type Info struct {
	Depth float64 `json:"depth"`
	Tilt  float64 `json:"tilt"`
}

// DefaultInfo is returned for keys without a known keycap profile.
var DefaultInfo = Info{Depth: 10, Tilt: 0}

var keyInfo = map[string]map[int]Info{
	"mt3": {
		0: {Depth: 14.7, Tilt: -12.5},
		1: {Depth: 13.1, Tilt: -6},
		2: {Depth: 10.7, Tilt: -6},
		3: {Depth: 10.7, Tilt: 6},
		4: {Depth: 11.6, Tilt: 12},
		5: {Depth: 11.6, Tilt: 0},
	},
	"dsa": {
		0: {Depth: 8.1, Tilt: 0},
	},
	"xda": {
		0: {Depth: 10.3, Tilt: 0},
	},
	"choc": {
		0: {Depth: 5, Tilt: 0},
	},
	"sa": {
		0: {Depth: 14.89, Tilt: -13},
		1: {Depth: 14.89, Tilt: -13},
		2: {Depth: 12.925, Tilt: -7},
		3: {Depth: 12.5, Tilt: 0},
		4: {Depth: 12.925, Tilt: 7},
		5: {Depth: 12.5, Tilt: 0},
	},
	"oem": {
		0: {Depth: 11.2, Tilt: -3},
		1: {Depth: 9.45, Tilt: 1},
		2: {Depth: 9, Tilt: 6},
		3: {Depth: 9.25, Tilt: 9},
		4: {Depth: 9.25, Tilt: 10},
		5: {Depth: 11.2, Tilt: -3},
	},
	"cherry": {
		0: {Depth: 9.8, Tilt: 0},
		1: {Depth: 9.8, Tilt: 0},
		2: {Depth: 7.45, Tilt: 2.5},
		3: {Depth: 6.55, Tilt: 5},
		4: {Depth: 6.7, Tilt: 11.5},
		5: {Depth: 6.7, Tilt: 11.5},
	},
}

var displayNames = map[string]string{
	"mt3":    "MT3",
	"dsa":    "DSA",
	"xda":    "XDA",
	"choc":   "Kailh Choc",
	"sa":     "SA",
	"oem":    "OEM",
	"cherry": "Cherry",
}

// ClosestAspect buckets an aspect ratio into one of Aspects. Ratios below 1
// describe rotated keys and are inverted first.
func ClosestAspect(aspect float64) float64 {
	if aspect < 1 && aspect > 0 {
		aspect = 1 / aspect
	}
	switch {
	case aspect < 1.125:
		return 1
	case aspect < 1.375:
		return 1.25
	case aspect < 1.75:
		return 1.5
	default:
		return 2
	}
}

// IsUniform reports whether profile is shaped the same on every row.
func IsUniform(profile string) bool { return uniform[profile] }

// KnownProfile reports whether the catalog has data for profile.
func KnownProfile(profile string) bool {
	_, ok := keyInfo[profile]
	return ok
}

// Profiles returns the known profile names, sorted.
func Profiles() []string {
	out := make([]string, 0, len(keyInfo))
	for p := range keyInfo {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DisplayName returns the human-readable name of a profile, or the profile
// itself when it has none.
func DisplayName(profile string) string {
	if n, ok := displayNames[profile]; ok {
		return n
	}
	return profile
}

// KeyInfo returns the keycap depth and tilt of k. Keys without a known
// profile get DefaultInfo. Uniform profiles ignore the row; other rows are
// clamped to 1..5.
func KeyInfo(k layout.Key) Info {
	if k.Keycap == nil {
		return DefaultInfo
	}
	rows, ok := keyInfo[k.Keycap.Profile]
	if !ok {
		return DefaultInfo
	}
	if IsUniform(k.Keycap.Profile) {
		return rows[0]
	}
	row := k.Keycap.Row
	switch {
	case row <= 0:
		row = 1
	case row > 5:
		row = 5
	}
	return rows[row]
}

// flipPairs are the legends swapped between the two halves of a mirrored
// split layout.
var flipPairs = [][2]string{
	{"0", "1"}, {"9", "2"}, {"8", "3"}, {"7", "4"}, {"6", "5"},
	{"p", "q"}, {"o", "w"}, {"i", "e"}, {"u", "r"}, {"y", "t"},
	{";", "a"}, {"l", "s"}, {"k", "d"}, {"j", "f"}, {"h", "g"},
	{"/", "z"}, {".", "x"}, {",", "c"}, {"m", "v"}, {"n", "b"},
}

var flipped = func() map[string]string {
	m := make(map[string]string, 2*len(flipPairs))
	for _, p := range flipPairs {
		m[p[0]] = p[1]
		m[p[1]] = p[0]
	}
	return m
}()

// FlippedKey returns the legend at the mirrored position of letter. Empty
// and unmapped legends are returned unchanged.
func FlippedKey(letter string) string {
	if f, ok := flipped[letter]; ok {
		return f
	}
	return letter
}

// AssetName is the name keycap meshes are stored under: profile-aspect for
// uniform profiles, profile-row-aspect otherwise.
func AssetName(profile string, aspect float64, row int) string {
	a := strconv.FormatFloat(aspect, 'f', -1, 64)
	if IsUniform(profile) {
		return profile + "-" + a
	}
	return profile + "-" + strconv.Itoa(row) + "-" + a
}

// CacheKey identifies a cached mesh: the asset name plus "-r" for meshes
// rotated a quarter turn.
func CacheKey(profile string, aspect float64, row int, rotated bool) string {
	k := AssetName(profile, aspect, row)
	if rotated {
		k += "-r"
	}
	return k
}
