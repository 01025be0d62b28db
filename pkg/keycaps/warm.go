package keycaps

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/cuttlecase/pkg/kernel"
)

// Asset identifies one stored keycap mesh.
type Asset struct {
	Profile string
	Row     int
	Aspect  float64
}

// Name is the asset's store name.
func (a Asset) Name() string { return AssetName(a.Profile, a.Aspect, a.Row) }

// Assets lists every keycap mesh the catalog can request: one per aspect
// for uniform profiles, one per row and aspect otherwise.
func Assets() []Asset {
	var out []Asset
	for _, p := range Profiles() {
		rows := Rows
		if IsUniform(p) {
			rows = []int{0}
		}
		for _, r := range rows {
			for _, a := range Aspects {
				out = append(out, Asset{Profile: p, Row: r, Aspect: a})
			}
		}
	}
	return out
}

// Warm loads assets into the cache, at most limit at a time. It returns the
// meshes that loaded, by asset name, and every failure joined. A failed
// asset does not stop the others.
func (c *Cache) Warm(ctx context.Context, assets []Asset, limit int) (map[string]*kernel.Mesh, error) {
	var (
		mu     sync.Mutex
		meshes = make(map[string]*kernel.Mesh, len(assets))
		errs   []error
	)
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, a := range assets {
		g.Go(func() error {
			m, err := c.GetKeyMesh(gctx, a.Profile, a.Aspect, a.Row, false)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			meshes[a.Name()] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return meshes, err
	}
	return meshes, errors.Join(errs...)
}
