package geometry

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/logging"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// trackballSamples is the number of points sampled on a trackball outline.
const trackballSamples = 12

func keyFrame(k layout.Key) trsf.Trsf {
	if k.Position == (trsf.Trsf{}) {
		return trsf.New()
	}
	return k.Position
}

// footprint returns the outline of a key in its local XY plane,
// counter-clockwise. known is false when the key type was not recognized
// and the default footprint was used.
func footprint(k layout.Key) (pts []v2.Vec, known bool) {
	if k.Type == layout.KeyTrackball {
		r := k.TrackballRadius()
		pts = make([]v2.Vec, trackballSamples)
		for i := range pts {
			s, c := math.Sincos(2 * math.Pi * float64(i) / trackballSamples)
			pts[i] = v2.Vec{X: r * c, Y: r * s}
		}
		return pts, true
	}

	info, known := layout.Switch(k.Type)
	w, l := info.Width, info.Length
	if k.Type == layout.KeyBlank && k.Size != nil {
		w, l = k.Size.X, k.Size.Y
	}
	if a := k.AspectOrDefault(); a >= 1 {
		w *= a
	} else if a > 0 {
		l /= a
	}
	hw, hl := w/2, l/2
	return []v2.Vec{
		{X: -hw, Y: -hl},
		{X: hw, Y: -hl},
		{X: hw, Y: hl},
		{X: -hw, Y: hl},
	}, known
}

func (g *Geometry) criticalPoints(frames []trsf.Trsf, warn bool) [][]trsf.Trsf {
	out := make([][]trsf.Trsf, len(g.cfg.Keys))
	for i, k := range g.cfg.Keys {
		pts, known := footprint(k)
		if !known && warn {
			g.log.Warn("unknown key type, using default footprint",
				logging.Int("key", i), logging.String("type", string(k.Type)))
		}
		out[i] = make([]trsf.Trsf, len(pts))
		for j, p := range pts {
			out[i][j] = frames[i].TranslateLocal(p.X, p.Y, 0)
		}
	}
	return out
}

// bottomByNormal returns the minimum of p.n over every footprint corner,
// both at the plate and at the bottom of the switch socket.
func (g *Geometry) bottomByNormal(n v3.Vec) float64 {
	lo := math.Inf(1)
	frames := g.KeyFrames()
	for i, k := range g.cfg.Keys {
		pts, _ := footprint(k)
		info, _ := layout.Switch(k.Type)
		for _, p := range pts {
			for _, z := range [2]float64{0, -info.Depth} {
				if d := frames[i].Apply(v3.Vec{X: p.X, Y: p.Y, Z: z}).Dot(n); d < lo {
					lo = d
				}
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	return lo
}
