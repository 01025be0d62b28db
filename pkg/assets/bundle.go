package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/chazu/cuttlecase/pkg/kernel"
)

// Bundle serves meshes from a JSON object mapping asset name to a base64
// binary STL. The bundle is read on first use.
type Bundle struct {
	open func() (io.ReadCloser, error)

	once    sync.Once
	entries map[string]string
	err     error
}

// NewBundleFile returns a Bundle backed by the file at path.
func NewBundleFile(path string) *Bundle {
	return &Bundle{open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// NewBundle returns a Bundle that decodes r on first use.
func NewBundle(r io.Reader) *Bundle {
	return &Bundle{open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil }}
}

func (b *Bundle) load() error {
	b.once.Do(func() {
		rc, err := b.open()
		if err != nil {
			b.err = fmt.Errorf("assets: open bundle: %w", err)
			return
		}
		defer rc.Close()
		if err := json.NewDecoder(rc).Decode(&b.entries); err != nil {
			b.err = fmt.Errorf("assets: decode bundle: %w", err)
		}
	})
	return b.err
}

// FetchMesh implements Fetcher.
func (b *Bundle) FetchMesh(ctx context.Context, name string) (*kernel.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	enc, ok := b.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("assets: %s: %w", name, err)
	}
	m, err := DecodeSTL(data)
	if err != nil {
		return nil, fmt.Errorf("assets: %s: %w", name, err)
	}
	return m, nil
}

// Names lists the bundled asset names in order.
func (b *Bundle) Names() ([]string, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(b.entries))
	for n := range b.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// WriteBundle encodes meshes in the Bundle format.
func WriteBundle(w io.Writer, meshes map[string]*kernel.Mesh) error {
	out := make(map[string]string, len(meshes))
	for name, m := range meshes {
		var buf bytes.Buffer
		if err := EncodeSTL(&buf, m); err != nil {
			return fmt.Errorf("assets: %s: %w", name, err)
		}
		out[name] = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}
