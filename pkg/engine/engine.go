// Package engine provides the Lisp evaluation engine for cuttlecase.
// It wraps zygomys in a sandboxed environment and produces a keyboard case
// configuration from a layout description.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/logging"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning flags something in the layout that evaluates but is likely a
// mistake, such as an unknown key type.
type EvalWarning struct {
	Key     int    `json:"key"` // index into Config.Keys, -1 when not about a key
	Message string `json:"message"`
}

// EvalResult bundles the output of an evaluation. Config is nil when
// Errors is not empty.
type EvalResult struct {
	Config   *layout.Config `json:"-"`
	Errors   []EvalError    `json:"errors,omitempty"`
	Warnings []EvalWarning  `json:"warnings,omitempty"`
}

// OK reports whether evaluation produced a configuration.
func (r *EvalResult) OK() bool {
	return r != nil && r.Config != nil && len(r.Errors) == 0
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine wraps the zygomys interpreter for layout evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism. Evaluations only supersede each
// other within a named session.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	sessions   map[string]uint64 // session -> generation of its newest evaluation
	timeout    time.Duration
	log        logging.Logger
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sessions: make(map[string]uint64),
		timeout:  DefaultTimeout,
		log:      logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.Named("engine")
	return e
}

// Evaluate takes a layout description and produces a case configuration.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: result with Config set, nil error
//   - On parse/eval failure: result with Errors set, nil error
//   - On fatal failure (timeout, cancellation, panic, superseded): nil + error
func (e *Engine) Evaluate(ctx context.Context, source string) (*EvalResult, error) {
	return e.EvaluateSession(ctx, "", source)
}

// EvaluateSession is Evaluate within a session, such as one editor. A
// session's evaluation that finishes after a newer one of the same session
// has started returns ErrSuperseded. The empty session never supersedes.
func (e *Engine) EvaluateSession(ctx context.Context, session, source string) (*EvalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stale func() bool
	if session != "" {
		gen := e.begin(session)
		defer e.end(session, gen)
		stale = func() bool { return e.stale(session, gen) }
	}

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res := e.evaluate(source)
		ch <- evalResult{result: res}
	}()

	res, err := waitWithTimeout(ctx, ch, e.timeout, stale)
	if err != nil {
		e.log.Warn("evaluation failed", logging.Err(err))
		return nil, err
	}
	if len(res.Errors) > 0 {
		e.log.Debug("evaluation errors", logging.Int("count", len(res.Errors)))
	}
	return res, nil
}

// begin records a new evaluation of session and returns its generation.
func (e *Engine) begin(session string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.sessions[session] = e.generation
	return e.generation
}

// stale reports whether a newer evaluation of session started after gen.
func (e *Engine) stale(session string, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[session] != gen
}

// end forgets session when gen is still its newest evaluation.
func (e *Engine) end(session string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[session] == gen {
		delete(e.sessions, session)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) *EvalResult {
	b := newBuilder()

	// Empty source is a valid program that produces an empty layout.
	if strings.TrimSpace(source) == "" {
		return b.result()
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	return b.result()
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
