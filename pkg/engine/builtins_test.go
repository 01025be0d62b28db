package engine

import (
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/layout"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(keycap :profile "dsa")`,
			expect: `(keycap "__kw_profile" "dsa")`,
		},
		{
			name:   "multiple keywords",
			input:  `(key :type :mx :aspect 1.5)`,
			expect: `(key "__kw_type" "__kw_mx" "__kw_aspect" 1.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote inside string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw` :x",
			expect: "`raw :kw` \"__kw_x\"",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(flip-letter thumb-key)`,
			expect: `(flip_letter thumb_key)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `:connector-index -1`,
			expect: `"__kw_connector-index" -1`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:wall-thickness`,
			expect: `"__kw_wall-thickness"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Layout builtins
// ---------------------------------------------------------------------------

func mustConfig(t *testing.T, source string) (*layout.Config, []EvalWarning) {
	t.Helper()
	res := evaluate(t, source)
	if !res.OK() {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	return res.Config, res.Warnings
}

func mustFail(t *testing.T, source, want string) {
	t.Helper()
	res := evaluate(t, source)
	if res.OK() {
		t.Fatalf("expected eval error containing %q", want)
	}
	for _, e := range res.Errors {
		if strings.Contains(e.Message, want) {
			return
		}
	}
	t.Errorf("eval errors %v do not mention %q", res.Errors, want)
}

func near(a, b v3.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9 && math.Abs(a.Z-b.Z) < 1e-9
}

func TestKeyboardOptions(t *testing.T) {
	cfg, warnings := mustConfig(t, `
(keyboard :microcontroller "pi-pico" :connector-index 3 :screws 4
          :wall-thickness 3.5 :vertical-clearance 0.1 :connector-width 10)
`)
	if cfg.Microcontroller != "pi-pico" {
		t.Errorf("microcontroller = %q", cfg.Microcontroller)
	}
	if cfg.ConnectorIndex != 3 {
		t.Errorf("connector index = %d, want 3", cfg.ConnectorIndex)
	}
	if cfg.ScrewCount != 4 {
		t.Errorf("screws = %d, want 4", cfg.ScrewCount)
	}
	if cfg.WallThickness != 3.5 || cfg.VerticalClearance != 0.1 || cfg.ConnectorWidth != 10 {
		t.Errorf("dimensions = %v %v %v", cfg.WallThickness, cfg.VerticalClearance, cfg.ConnectorWidth)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestKeyboardDefaults(t *testing.T) {
	cfg, _ := mustConfig(t, `(keyboard :connector-index -1)`)
	if cfg.ConnectorIndex != -1 || !cfg.AutoConnector() {
		t.Errorf("expected automatic connector, got %d", cfg.ConnectorIndex)
	}
	if cfg.WallThickness != layout.DefaultWallThickness {
		t.Errorf("wall thickness = %v", cfg.WallThickness)
	}
	if _, ok := cfg.Shell.(layout.BasicShell); !ok {
		t.Errorf("default shell = %T", cfg.Shell)
	}
}

func TestUnknownMicrocontrollerWarns(t *testing.T) {
	_, warnings := mustConfig(t, `(keyboard :microcontroller :teensy)`)
	if len(warnings) != 1 || warnings[0].Key != -1 {
		t.Fatalf("expected one layout warning, got %v", warnings)
	}
}

func TestShells(t *testing.T) {
	cfg, _ := mustConfig(t, `(shell :block :bottom-thickness 2)`)
	if s, ok := cfg.Shell.(layout.BlockShell); !ok || s.BottomThickness != 2 {
		t.Errorf("block shell = %#v", cfg.Shell)
	}

	cfg, _ = mustConfig(t, `(shell :basic :lip true)`)
	if s, ok := cfg.Shell.(layout.BasicShell); !ok || !s.Lip {
		t.Errorf("basic shell = %#v", cfg.Shell)
	}

	cfg, _ = mustConfig(t, `(shell :tilt :angle 15 :raise 3)`)
	tilt, ok := cfg.Shell.(layout.TiltShell)
	if !ok {
		t.Fatalf("expected TiltShell, got %T", cfg.Shell)
	}
	if tilt.Angle != 15 || tilt.RaiseBy != 3 || tilt.Axis != nil {
		t.Errorf("tilt shell = %#v", tilt)
	}

	cfg, _ = mustConfig(t, `(shell :tilt :axis (vec3 0.2 0 1))`)
	tilt = cfg.Shell.(layout.TiltShell)
	if tilt.Axis == nil || !near(*tilt.Axis, v3.Vec{X: 0.2, Z: 1}) {
		t.Errorf("tilt axis = %v", tilt.Axis)
	}

	// The last shell form wins.
	cfg, _ = mustConfig(t, `(shell :tilt :angle 5) (shell :block)`)
	if cfg.Shell.Kind() != layout.ShellBlock {
		t.Errorf("expected block shell, got %s", cfg.Shell.Kind())
	}
}

func TestShellErrors(t *testing.T) {
	mustFail(t, `(shell :round)`, "unknown kind")
	mustFail(t, `(shell)`, "requires a kind")
	mustFail(t, `(shell :tilt :lip true)`, "unknown option :lip")
	mustFail(t, `(shell :tilt :axis (vec3 0 0 0))`, "axis must not be zero")
	mustFail(t, `(shell :tilt :angle "steep")`, "angle")
}

func TestKeyPlacement(t *testing.T) {
	cfg, warnings := mustConfig(t, `
(def pitch 19.05)
(key :type :mx :at (vec3 0 0 10)
     :keycap (keycap :profile "dsa" :row 3 :letter "q"))
(key :type :choc :at (vec3 pitch 0 10) :rotate (vec3 0 0 90) :aspect 0.5)
(key :type :trackball :at (vec3 40 -30 5) :radius 20)
(key :type :blank :at (vec3 0 20 0) :size (vec3 18 9 0))
`)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(cfg.Keys) != 4 {
		t.Fatalf("expected 4 keys, got %d", len(cfg.Keys))
	}

	k := cfg.Keys[0]
	if k.Type != layout.KeyMX || !near(k.Position.Origin(), v3.Vec{Z: 10}) {
		t.Errorf("key 0 = %s at %v", k.Type, k.Position.Origin())
	}
	if k.Keycap == nil || *k.Keycap != (layout.Keycap{Profile: "dsa", Row: 3, Letter: "q"}) {
		t.Errorf("key 0 keycap = %#v", k.Keycap)
	}

	k = cfg.Keys[1]
	if !near(k.Position.Origin(), v3.Vec{X: 19.05, Z: 10}) {
		t.Errorf("key 1 origin = %v", k.Position.Origin())
	}
	// A quarter turn about Z maps local X onto world Y.
	if !near(k.Position.XAxis(), v3.Vec{Y: 1}) {
		t.Errorf("key 1 x axis = %v", k.Position.XAxis())
	}
	if !k.Rotated() {
		t.Error("key 1 should be rotated")
	}

	if cfg.Keys[2].TrackballRadius() != 20 {
		t.Errorf("trackball radius = %v", cfg.Keys[2].TrackballRadius())
	}
	if s := cfg.Keys[3].Size; s == nil || s.X != 18 || s.Y != 9 {
		t.Errorf("blank size = %v", s)
	}
}

func TestKeyWarnings(t *testing.T) {
	_, warnings := mustConfig(t, `
(key)
(key :type :hall-effect)
(key :keycap (keycap :profile :kat))
`)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if warnings[0].Key != 1 || !strings.Contains(warnings[0].Message, "hall-effect") {
		t.Errorf("warning 0 = %+v", warnings[0])
	}
	if warnings[1].Key != 2 || !strings.Contains(warnings[1].Message, "kat") {
		t.Errorf("warning 1 = %+v", warnings[1])
	}
}

func TestKeyErrors(t *testing.T) {
	mustFail(t, `(key :at 5)`, "expected vec3")
	mustFail(t, `(key :colour "red")`, "unknown option :colour")
	mustFail(t, `(key :aspect -1)`, "aspect must not be negative")
	mustFail(t, `(key :keycap "dsa")`, "expected keycap")
	mustFail(t, `(keycap :row 2)`, "requires :profile")
	mustFail(t, `(keycap :profile "sa" :row 1.5)`, "expected integer")
	mustFail(t, `(keyboard :screws -2)`, "screws")
	mustFail(t, `(keyboard :wall-thickness -1)`, "must not be negative")
	mustFail(t, `(vec3 1 2)`, "exactly 3 arguments")
}

func TestFunctionsBuildKeys(t *testing.T) {
	cfg, _ := mustConfig(t, `
(defn column [x] (key :at (vec3 x 0 0)))
(column 0)
(column 19.05)
(column 38.1)
`)
	if len(cfg.Keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(cfg.Keys))
	}
	if got := cfg.Keys[2].Position.Origin().X; math.Abs(got-38.1) > 1e-9 {
		t.Errorf("third key x = %v, want 38.1", got)
	}
}

func TestFlipLetter(t *testing.T) {
	cfg, _ := mustConfig(t, `
(key :keycap (keycap :profile "dsa" :letter (flip-letter "q")))
`)
	if cfg.Keys[0].Keycap.Letter != "p" {
		t.Errorf("flipped letter = %q, want p", cfg.Keys[0].Keycap.Letter)
	}
}
