// Package app is the cuttlecase backend: it evaluates a layout, derives the
// case geometry and tessellates preview meshes, and serves that pipeline
// over HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/cuttlecase/pkg/boundary"
	"github.com/chazu/cuttlecase/pkg/engine"
	"github.com/chazu/cuttlecase/pkg/geometry"
	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/kernel/sdfx"
	"github.com/chazu/cuttlecase/pkg/keycaps"
	"github.com/chazu/cuttlecase/pkg/logging"
	"github.com/chazu/cuttlecase/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs,omitempty"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// WarningData is a non-fatal problem. Key is the offending key index, or
// -1 for the layout as a whole.
type WarningData struct {
	Key     int    `json:"key"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Case     *CaseData       `json:"case,omitempty"`
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []WarningData   `json:"warnings"`
}

// OK reports whether the evaluation produced no errors.
func (r *EvalResult) OK() bool { return len(r.Errors) == 0 }

func (r *EvalResult) fail(msg string) {
	r.Errors = append(r.Errors, EvalErrorData{Message: msg})
}

// Option configures an App.
type Option func(*App)

// WithEngine replaces the layout evaluator.
func WithEngine(e *engine.Engine) Option { return func(a *App) { a.engine = e } }

// WithKernel replaces the meshing kernel.
func WithKernel(k kernel.Kernel) Option { return func(a *App) { a.kernel = k } }

// WithCache sets the keycap cache. Without one, previews carry no keycaps
// or trackballs.
func WithCache(c *keycaps.Cache) Option { return func(a *App) { a.cache = c } }

// WithSolver replaces the boundary solver.
func WithSolver(s boundary.Solver) Option { return func(a *App) { a.solver = s } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(a *App) { a.log = l } }

// WithMetrics sets the evaluation metrics.
func WithMetrics(m *Metrics) Option { return func(a *App) { a.metrics = m } }

// App runs the evaluate, derive and tessellate pipeline.
type App struct {
	engine  *engine.Engine
	kernel  kernel.Kernel
	cache   *keycaps.Cache
	solver  boundary.Solver
	log     logging.Logger
	metrics *Metrics
}

// New creates an App with the sdfx kernel and the convex hull solver.
func New(opts ...Option) *App {
	a := &App{
		kernel:  sdfx.New(),
		solver:  boundary.HullSolver{},
		log:     logging.NewNopLogger(),
		metrics: NewMetrics(nil),
	}
	for _, o := range opts {
		o(a)
	}
	if a.engine == nil {
		a.engine = engine.NewEngine(engine.WithLogger(a.log))
	}
	return a
}

// Evaluate takes Lisp source and returns the derived case summary and,
// when withMeshes is set, the preview meshes.
func (a *App) Evaluate(ctx context.Context, source string, withMeshes bool) EvalResult {
	return a.EvaluateSession(ctx, "", source, withMeshes)
}

// EvaluateSession is Evaluate on behalf of an editing session. A session's
// evaluation overtaken by a newer one of the same session reports
// engine.ErrSuperseded; the empty session never does.
func (a *App) EvaluateSession(ctx context.Context, session, source string, withMeshes bool) EvalResult {
	start := time.Now()
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []WarningData{},
	}
	outcome := a.evaluate(ctx, session, source, withMeshes, &result)
	a.metrics.observe(outcome, time.Since(start))
	return result
}

func (a *App) evaluate(ctx context.Context, session, source string, withMeshes bool, result *EvalResult) string {
	// Step 1: Evaluate the Lisp source into a case configuration.
	res, err := a.engine.EvaluateSession(ctx, session, source)
	if err != nil {
		a.log.Warn("evaluate fatal error", logging.Err(err))
		result.fail(err.Error())
		switch {
		case errors.Is(err, engine.ErrSuperseded):
			return OutcomeSuperseded
		case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			return OutcomeTimeout
		}
		return OutcomeFatal
	}

	// Step 2: Convert eval errors and warnings to the frontend format.
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, WarningData{Key: w.Key, Message: w.Message})
	}
	if !res.OK() {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return OutcomeError
	}
	if len(res.Config.Keys) == 0 {
		return OutcomeOK
	}

	// Step 3: Derive the case.
	g := geometry.New(res.Config, a.solver, geometry.WithLogger(a.log))
	c, err := Summarize(g)
	if err != nil {
		a.log.Info("case derivation failed", logging.Err(err))
		result.fail("geometry: " + err.Error())
		return OutcomeError
	}
	result.Case = c
	if !withMeshes {
		return OutcomeOK
	}

	// Step 4: Load keycaps. A missing keycap degrades the preview only.
	var placed []keycaps.Placed
	if a.cache != nil {
		placed, err = a.cache.KeyGeometries(ctx, g.KeyFrames(), res.Config.Keys, a.kernel)
		if err != nil {
			a.log.Warn("keycap meshes unavailable", logging.Err(err))
			result.Warnings = append(result.Warnings, WarningData{Key: -1, Message: "keycaps unavailable: " + err.Error()})
			placed = nil
		}
	}

	// Step 5: Tessellate and convert to the frontend MeshData format.
	meshes, err := tessellate.Tessellate(g, placed, a.kernel)
	if err != nil {
		a.log.Warn("tessellate error", logging.Err(err))
		result.fail(fmt.Sprintf("tessellation failed: %v", err))
		return OutcomeError
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			UVs:      m.UVs,
			Indices:  m.Indices,
			PartName: m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return OutcomeOK
}
