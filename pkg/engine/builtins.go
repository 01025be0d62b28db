package engine

import (
	"fmt"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cuttlecase/pkg/keycaps"
	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms layout source before passing it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: thumb-row -> thumb_row
//     zygomys reads a hyphen inside an identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	out := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch c := b[i]; {
		case c == '"' || c == '`':
			j := skipString(b, i)
			out = append(out, b[i:j]...)
			i = j

		case c == ';':
			out = append(out, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++

		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// skipString returns the index just past the string literal starting at i.
// Backslash escapes apply to double-quoted strings only.
func skipString(b []byte, i int) int {
	quote := b[i]
	j := i + 1
	for j < len(b) && b[j] != quote {
		if quote == '"' && b[j] == '\\' && j+1 < len(b) {
			j++
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpKeycap wraps a layout.Keycap so it can be returned from `keycap`
// and consumed by `key`.
type sexpKeycap struct {
	kc layout.Keycap
}

func (k *sexpKeycap) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(keycap :profile %q :row %d)", k.kc.Profile, k.kc.Row)
}
func (k *sexpKeycap) Type() *zygo.RegisteredType { return nil }

// sexpKey refers to a key already added to the layout.
type sexpKey struct {
	index int
	typ   layout.KeyType
}

func (k *sexpKey) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(key #%d :%s)", k.index, k.typ)
}
func (k *sexpKey) Type() *zygo.RegisteredType { return nil }

// sexpShell wraps the shell chosen by `shell`.
type sexpShell struct {
	shell layout.Shell
}

func (s *sexpShell) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(shell :%s)", s.shell.Kind())
}
func (s *sexpShell) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Keyword at end with no value: treat as a flag.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// unknown returns the first keyword not in allowed, sorted for a stable
// message.
func (a kwArgs) unknown(allowed ...string) string {
	var bad []string
	for k := range a.kw {
		found := false
		for _, ok := range allowed {
			if k == ok {
				found = true
				break
			}
		}
		if !found {
			bad = append(bad, k)
		}
	}
	if len(bad) == 0 {
		return ""
	}
	first := bad[0]
	for _, k := range bad[1:] {
		if k < first {
			first = k
		}
	}
	return first
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and treats a bare flag keyword as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_mx) and plain strings ("mx").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toKeycap extracts a Keycap from a sexpKeycap.
func toKeycap(s zygo.Sexp) (layout.Keycap, error) {
	if k, ok := s.(*sexpKeycap); ok {
		return k.kc, nil
	}
	return layout.Keycap{}, fmt.Errorf("expected keycap, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Layout builder
// ---------------------------------------------------------------------------

// builder accumulates the configuration while the program runs.
type builder struct {
	cfg      *layout.Config
	warnings []EvalWarning
}

func newBuilder() *builder {
	return &builder{cfg: layout.New()}
}

func (b *builder) warn(key int, format string, args ...interface{}) {
	b.warnings = append(b.warnings, EvalWarning{Key: key, Message: fmt.Sprintf(format, args...)})
}

func (b *builder) result() *EvalResult {
	return &EvalResult{Config: b.cfg, Warnings: b.warnings}
}

// keyFrame builds a key placement: rotations in degrees about world X, Y
// then Z, followed by the translation.
func keyFrame(at, rot v3.Vec) trsf.Trsf {
	return trsf.New().
		Rotate(rot.X, trsf.UnitX).
		Rotate(rot.Y, trsf.UnitY).
		Rotate(rot.Z, trsf.UnitZ).
		TranslateBy(at)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout DSL into a zygomys environment. The
// builtins fill b while the program runs.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (keyboard :microcontroller "pi-pico" :connector-index -1 :screws 4
	//           :wall-thickness 4 :vertical-clearance 0.1 :connector-width 12)
	// -----------------------------------------------------------------------
	env.AddFunction("keyboard", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if bad := pa.unknown("microcontroller", "connector-index", "connector-width",
			"screws", "wall-thickness", "vertical-clearance"); bad != "" {
			return zygo.SexpNull, fmt.Errorf("keyboard: unknown option :%s", bad)
		}
		cfg := b.cfg

		if v, ok := pa.kw["microcontroller"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("keyboard: microcontroller: %w", err)
			}
			if _, known := layout.Board(s); !known && s != "" {
				b.warn(-1, "unknown microcontroller %q, using the default outline", s)
			}
			cfg.Microcontroller = s
		}
		if v, ok := pa.kw["connector-index"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("keyboard: connector-index: %w", err)
			}
			cfg.ConnectorIndex = n
		}
		if v, ok := pa.kw["screws"]; ok {
			n, err := toInt(v)
			if err != nil || n < 0 {
				return zygo.SexpNull, fmt.Errorf("keyboard: screws: expected a count >= 0, got %s", v.SexpString(nil))
			}
			cfg.ScrewCount = n
		}
		for kw, dst := range map[string]*float64{
			"connector-width":    &cfg.ConnectorWidth,
			"wall-thickness":     &cfg.WallThickness,
			"vertical-clearance": &cfg.VerticalClearance,
		} {
			v, ok := pa.kw[kw]
			if !ok {
				continue
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("keyboard: %s: %w", kw, err)
			}
			if f < 0 {
				return zygo.SexpNull, fmt.Errorf("keyboard: %s must not be negative", kw)
			}
			*dst = f
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (shell :basic :lip true)
	// (shell :block :bottom-thickness 2)
	// (shell :tilt :angle 15 :raise 3)
	// (shell :tilt :axis (vec3 0.2 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("shell", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("shell requires a kind (:basic, :block or :tilt)")
		}
		kind, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shell: kind: %w", err)
		}
		pa := parseArgs(args[1:])

		var sh layout.Shell
		switch kind {
		case "basic":
			if bad := pa.unknown("lip"); bad != "" {
				return zygo.SexpNull, fmt.Errorf("shell :basic: unknown option :%s", bad)
			}
			s := layout.BasicShell{}
			if v, ok := pa.kw["lip"]; ok {
				if s.Lip, err = toBool(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("shell: lip: %w", err)
				}
			}
			sh = s

		case "block":
			if bad := pa.unknown("bottom-thickness"); bad != "" {
				return zygo.SexpNull, fmt.Errorf("shell :block: unknown option :%s", bad)
			}
			s := layout.BlockShell{}
			if v, ok := pa.kw["bottom-thickness"]; ok {
				if s.BottomThickness, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("shell: bottom-thickness: %w", err)
				}
			}
			sh = s

		case "tilt":
			if bad := pa.unknown("angle", "axis", "raise"); bad != "" {
				return zygo.SexpNull, fmt.Errorf("shell :tilt: unknown option :%s", bad)
			}
			s := layout.TiltShell{}
			if v, ok := pa.kw["angle"]; ok {
				if s.Angle, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("shell: angle: %w", err)
				}
			}
			if v, ok := pa.kw["raise"]; ok {
				if s.RaiseBy, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("shell: raise: %w", err)
				}
			}
			if v, ok := pa.kw["axis"]; ok {
				axis, err := toVec3(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("shell: axis: %w", err)
				}
				if axis.Length() == 0 {
					return zygo.SexpNull, fmt.Errorf("shell: axis must not be zero")
				}
				s.Axis = &axis
			}
			sh = s

		default:
			return zygo.SexpNull, fmt.Errorf("shell: unknown kind %q, expected basic, block or tilt", kind)
		}
		b.cfg.Shell = sh
		return &sexpShell{shell: sh}, nil
	})

	// -----------------------------------------------------------------------
	// (keycap :profile "dsa" :row 3 :letter "q")
	// -----------------------------------------------------------------------
	env.AddFunction("keycap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if bad := pa.unknown("profile", "row", "letter"); bad != "" {
			return zygo.SexpNull, fmt.Errorf("keycap: unknown option :%s", bad)
		}
		kc := layout.Keycap{}

		v, ok := pa.kw["profile"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("keycap requires :profile")
		}
		p, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("keycap: profile: %w", err)
		}
		kc.Profile = p
		if v, ok := pa.kw["row"]; ok {
			if kc.Row, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("keycap: row: %w", err)
			}
		}
		if v, ok := pa.kw["letter"]; ok {
			if kc.Letter, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("keycap: letter: %w", err)
			}
		}
		return &sexpKeycap{kc: kc}, nil
	})

	// -----------------------------------------------------------------------
	// (key :type :mx :at (vec3 0 0 10) :rotate (vec3 0 0 0) :aspect 1
	//      :keycap (keycap ...) :size (vec3 18 18 0) :radius 17.5)
	// -----------------------------------------------------------------------
	env.AddFunction("key", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if bad := pa.unknown("type", "at", "rotate", "aspect", "keycap", "size", "radius"); bad != "" {
			return zygo.SexpNull, fmt.Errorf("key: unknown option :%s", bad)
		}
		idx := len(b.cfg.Keys)
		k := layout.Key{Type: layout.KeyMX}

		if v, ok := pa.kw["type"]; ok {
			t, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: type: %w", err)
			}
			k.Type = layout.KeyType(t)
			if _, known := layout.Switch(k.Type); !known {
				b.warn(idx, "unknown key type %q, using the default footprint", t)
			}
		}
		var at, rot v3.Vec
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: at: %w", err)
			}
			at = vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: rotate: %w", err)
			}
			rot = vec
		}
		k.Position = keyFrame(at, rot)

		if v, ok := pa.kw["aspect"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: aspect: %w", err)
			}
			if f < 0 {
				return zygo.SexpNull, fmt.Errorf("key: aspect must not be negative")
			}
			k.Aspect = f
		}
		if v, ok := pa.kw["keycap"]; ok {
			kc, err := toKeycap(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: keycap: %w", err)
			}
			k.Keycap = &kc
			if !keycaps.KnownProfile(kc.Profile) {
				b.warn(idx, "unknown keycap profile %q, no keycap mesh will be shown", kc.Profile)
			}
		}
		if v, ok := pa.kw["size"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: size: %w", err)
			}
			k.Size = &v2.Vec{X: vec.X, Y: vec.Y}
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("key: radius: %w", err)
			}
			k.Radius = f
		}

		b.cfg.Keys = append(b.cfg.Keys, k)
		return &sexpKey{index: idx, typ: k.Type}, nil
	})

	// -----------------------------------------------------------------------
	// (flip-letter "q") -> "p", the legend of the mirrored key
	// -----------------------------------------------------------------------
	env.AddFunction("flip_letter", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("flip-letter requires one string")
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("flip-letter: %w", err)
		}
		return &zygo.SexpStr{S: keycaps.FlippedKey(s)}, nil
	})
}
