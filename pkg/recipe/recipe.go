// Package recipe runs fracture recipes: small Lisp programs, evaluated by a
// sandboxed zygomys interpreter, that build or load a collection and push
// it through cutters, clustering and cleanup.
//
//	(grid-collection :nx 4 :ny 1 :nz 1 :size 1)
//	(def pieces (uniform :min 4 :max 6 :seed 7))
//	(fix-tiny :sel pieces :cube-root 0.2)
//	(auto-cluster :method :count :sites 3)
package recipe

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/fracture"
	"github.com/chazu/splinter/pkg/kernel"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/selection"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 30 * time.Second

var (
	ErrTimeout    = errors.New("recipe: evaluation timed out")
	ErrSuperseded = errors.New("recipe: evaluation superseded by newer request")
)

// EvalError is a parse or runtime error in recipe code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result is the state a recipe leaves behind.
type Result struct {
	Collection *collection.Collection
	// Selection is the last selection a builtin produced or received.
	Selection selection.Selection
	// New selects the bones the last cutter created.
	New selection.Selection
	// Steps counts the builtins that changed the collection.
	Steps int
	// Value prints the recipe's last expression.
	Value string
}

// Engine evaluates recipes. It is safe for concurrent use; every call runs
// in a fresh sandbox and a newer call supersedes an older one still
// running.
type Engine struct {
	Fracture *fracture.Engine
	// Defaults seed every cutter's shared settings before keywords apply.
	Defaults fracture.Common
	Timeout  time.Duration

	mu         sync.Mutex
	generation uint64
}

// New returns an Engine cutting with cutter and building cutting meshes
// with prims, which may be nil.
func New(cutter kernel.Cutter, prims kernel.Primitives) *Engine {
	return &Engine{
		Fracture: fracture.New(cutter, prims),
		Defaults: fracture.DefaultCommon(),
		Timeout:  DefaultTimeout,
	}
}

type outcome struct {
	result *Result
	errs   []EvalError
	err    error
}

// Evaluate runs source against input, which may be nil when the recipe
// builds its own collection. input is never modified.
//
// Parse and runtime errors in the recipe come back as EvalErrors with a
// nil result. Timeouts, cancellation and panics are returned as err.
func (e *Engine) Evaluate(ctx context.Context, source string, input *collection.Collection) (*Result, []EvalError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("recipe: panic during evaluation: %v", r)}
			}
		}()
		res, errs := e.evaluate(source, input)
		ch <- outcome{result: res, errs: errs}
	}()

	return e.wait(ctx, ch, gen, timeout)
}

// wait returns the outcome on ch unless ctx ends first or a newer
// evaluation started meanwhile.
func (e *Engine) wait(ctx context.Context, ch <-chan outcome, gen uint64, timeout time.Duration) (*Result, []EvalError, error) {
	select {
	case out := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return out.result, out.errs, out.err
	case <-ctx.Done():
		// The interpreter goroutine is abandoned; its result is dropped.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, nil, ctx.Err()
	}
}

func (e *Engine) evaluate(source string, input *collection.Collection) (*Result, []EvalError) {
	st := &state{eng: e}
	if input != nil {
		st.set(input.Clone())
	}
	if strings.TrimSpace(source) == "" {
		return st.result(), nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	st.register(env)

	if err := env.LoadString(preprocess(source)); err != nil {
		return nil, parseError(err)
	}
	v, err := env.Run()
	if err != nil {
		return nil, parseError(err)
	}
	st.value = v.SexpString(nil)
	logging.Debug("recipe: evaluated", "steps", st.steps, "bones", st.bones())
	return st.result(), nil
}

var (
	lineLong  = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	lineShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// parseError pulls a line number out of a zygomys error when one is there.
func parseError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{lineLong, lineShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
