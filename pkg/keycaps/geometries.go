package keycaps

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// TrackballDrop is how far a trackball's center sits below its key frame.
const TrackballDrop = 2.5

// Placed is a mesh positioned on a key. Mesh is shared with the cache and
// is in key-local coordinates; Frame maps it into case space.
type Placed struct {
	Index int
	Key   layout.Key
	Mesh  *kernel.Mesh
	Frame trsf.Trsf
}

// KeyGeometries returns the keycap or trackball mesh of every key that has
// one, in key order. Encoders, blanks, keys without a keycap and keycaps of
// unknown profile are skipped. Meshes are loaded concurrently; the first
// failure is returned.
func (c *Cache) KeyGeometries(ctx context.Context, frames []trsf.Trsf, keys []layout.Key, kern kernel.Kernel) ([]Placed, error) {
	if len(frames) != len(keys) {
		return nil, fmt.Errorf("keycaps: %d frames for %d keys", len(frames), len(keys))
	}

	slots := make([]*Placed, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		var offset float64
		switch {
		case k.Type == layout.KeyTrackball:
			offset = -TrackballDrop
		case !k.HasKeycap() || !KnownProfile(k.Keycap.Profile):
			continue
		default:
			info, _ := layout.Switch(k.Type)
			offset = info.Height
		}
		g.Go(func() error {
			var (
				m   *kernel.Mesh
				err error
			)
			if k.Type == layout.KeyTrackball {
				m, err = c.sphere(kern, k.TrackballRadius())
			} else {
				m, err = c.GetKeyMesh(gctx, k.Keycap.Profile, ClosestAspect(k.AspectOrDefault()), k.Keycap.Row, k.Rotated())
			}
			if err != nil {
				return fmt.Errorf("key %d: %w", i, err)
			}
			slots[i] = &Placed{Index: i, Key: k, Mesh: m, Frame: frames[i].TranslateLocal(0, 0, offset)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Placed
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// sphere tessellates a trackball once per radius and keeps it alongside the
// keycaps.
func (c *Cache) sphere(kern kernel.Kernel, r float64) (*kernel.Mesh, error) {
	if kern == nil {
		return nil, fmt.Errorf("keycaps: no kernel to build a trackball")
	}
	key := "trackball-" + strconv.FormatFloat(r, 'f', -1, 64)
	if res, ok := c.lookup(key); ok {
		return res.mesh, res.err
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if res, ok := c.lookup(key); ok {
			return res.mesh, res.err
		}
		m, err := kern.ToMesh(kern.Sphere(r))
		if err == nil {
			m.Name = key
		}
		c.mu.Lock()
		c.results[key] = result{mesh: m, err: err}
		c.mu.Unlock()
		return m, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*kernel.Mesh), nil
}
