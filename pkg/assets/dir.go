package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chazu/cuttlecase/pkg/kernel"
)

// Dir serves meshes stored as <root>/<name>.stl.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// FetchMesh implements Fetcher.
func (d *Dir) FetchMesh(ctx context.Context, name string) (*kernel.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("assets: invalid asset name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(d.root, name+".stl"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("assets: %s: %w", name, err)
	}
	m, err := DecodeSTL(data)
	if err != nil {
		return nil, fmt.Errorf("assets: %s: %w", name, err)
	}
	return m, nil
}
