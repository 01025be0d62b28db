package layout

import "testing"

func TestShellKindString(t *testing.T) {
	tests := []struct {
		shell Shell
		want  string
	}{
		{BasicShell{}, "basic"},
		{BlockShell{}, "block"},
		{TiltShell{Angle: 10}, "tilt"},
	}
	for _, tt := range tests {
		if got := tt.shell.Kind().String(); got != tt.want {
			t.Errorf("%T kind = %q, want %q", tt.shell, got, tt.want)
		}
	}
	if got := ShellKind(42).String(); got != "unknown" {
		t.Errorf("ShellKind(42) = %q, want unknown", got)
	}
}

func TestNewConfigDefaults(t *testing.T) {
	c := New()
	if !c.AutoConnector() {
		t.Error("new config should pick the connector automatically")
	}
	if c.ShellOrDefault().Kind() != ShellBasic {
		t.Errorf("default shell = %v, want basic", c.ShellOrDefault().Kind())
	}
	var zero Config
	if zero.ShellOrDefault().Kind() != ShellBasic {
		t.Error("nil shell should fall back to basic")
	}
	if zero.WallThicknessOrDefault() != DefaultWallThickness {
		t.Errorf("wall thickness = %v, want %v", zero.WallThicknessOrDefault(), DefaultWallThickness)
	}
	if zero.ConnectorWidthOrDefault() != DefaultConnectorWidth {
		t.Errorf("connector width = %v, want %v", zero.ConnectorWidthOrDefault(), DefaultConnectorWidth)
	}
}

func TestKeyHelpers(t *testing.T) {
	k := Key{Type: KeyMX}
	if k.AspectOrDefault() != 1 {
		t.Errorf("zero aspect should read as 1, got %v", k.AspectOrDefault())
	}
	if k.Rotated() {
		t.Error("aspect 1 is not rotated")
	}
	k.Aspect = 0.5
	if !k.Rotated() {
		t.Error("aspect 0.5 is rotated")
	}
	if k.HasKeycap() {
		t.Error("key without keycap reports one")
	}
	k.Keycap = &Keycap{Profile: "dsa"}
	if !k.HasKeycap() {
		t.Error("key with keycap reports none")
	}
	ball := Key{Type: KeyTrackball, Keycap: &Keycap{Profile: "dsa"}}
	if ball.HasKeycap() {
		t.Error("trackball never carries a keycap")
	}
	if ball.TrackballRadius() != DefaultTrackballRadius {
		t.Errorf("trackball radius = %v", ball.TrackballRadius())
	}
}

func TestSwitchAndBoardFallbacks(t *testing.T) {
	if _, ok := Switch(KeyChoc); !ok {
		t.Error("choc should be known")
	}
	info, ok := Switch("gateron-magnetic")
	if ok || info != DefaultSwitch {
		t.Errorf("unknown switch = %+v, %v; want default", info, ok)
	}
	if _, ok := Board("pi-pico"); !ok {
		t.Error("pi-pico should be known")
	}
	size, ok := Board("")
	if ok || size != DefaultBoard {
		t.Errorf("empty board = %+v, %v; want default", size, ok)
	}
}
