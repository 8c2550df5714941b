package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/kernel/sdfx"
	"github.com/chazu/splinter/pkg/logging"
	"github.com/chazu/splinter/pkg/recipe"
)

// recipeRun holds the resolved arguments of recipe and watch.
type recipeRun struct {
	e      *env
	script string
	in     string
	out    string
	engine *recipe.Engine
}

func recipeFlags(fs *pflag.FlagSet) (in, out *string) {
	return fs.String("in", "", "collection the recipe starts from"),
		fs.String("out", "", "save the resulting collection here (default: --in)")
}

func newRecipeRun(e *env, in, out string) (*recipeRun, error) {
	if len(e.args) != 1 {
		return nil, usagef("expected <script>")
	}
	if out == "" {
		out = in
	}
	eng := recipe.New(e.cutter, sdfx.New())
	eng.Defaults = e.cfg.Fracture.Common()
	eng.Timeout = time.Duration(e.cfg.Recipe.TimeoutSeconds * float64(time.Second))
	return &recipeRun{e: e, script: e.args[0], in: in, out: out, engine: eng}, nil
}

var errRecipe = errors.New("recipe failed")

// once evaluates the script a single time and saves the result.
func (r *recipeRun) once(ctx context.Context) error {
	src, err := os.ReadFile(r.script)
	if err != nil {
		return err
	}
	var input *collection.Collection
	if r.in != "" {
		if input, err = r.e.load(r.in); err != nil {
			return err
		}
	}
	res, evalErrs, err := r.engine.Evaluate(ctx, string(src), input)
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, ee := range evalErrs {
			fmt.Fprintf(r.e.out, "%s:%s\n", r.script, ee.Error())
		}
		return fmt.Errorf("%w: %d errors", errRecipe, len(evalErrs))
	}
	bones := 0
	if res.Collection != nil {
		bones = res.Collection.NumTransforms()
	}
	fmt.Fprintf(r.e.out, "recipe: %d steps, %d bones, value %s\n", res.Steps, bones, res.Value)
	if r.out == "" {
		return nil
	}
	if res.Collection == nil {
		return fmt.Errorf("recipe built no collection to save")
	}
	return r.e.save(r.out, res.Collection)
}

func recipeCommand(fs *pflag.FlagSet) func(e *env) error {
	in, out := recipeFlags(fs)
	return func(e *env) error {
		r, err := newRecipeRun(e, *in, *out)
		if err != nil {
			return err
		}
		return r.once(context.Background())
	}
}

func watchCommand(fs *pflag.FlagSet) func(e *env) error {
	in, out := recipeFlags(fs)
	settle := fs.Duration("settle", 100*time.Millisecond, "wait this long after a change before running")
	return func(e *env) error {
		r, err := newRecipeRun(e, *in, *out)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return r.watch(ctx, *settle)
	}
}

// watch runs the script now and again after every write to it, until ctx
// ends. The directory is watched so editors that replace the file by
// renaming are still seen.
func (r *recipeRun) watch(ctx context.Context, settle time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	script, err := filepath.Abs(r.script)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(script)); err != nil {
		return err
	}
	fmt.Fprintf(r.e.out, "watch: %s\n", r.script)

	rerun := func() {
		if err := r.once(ctx); err != nil && ctx.Err() == nil {
			if !errors.Is(err, errRecipe) {
				fmt.Fprintf(r.e.out, "watch: %v\n", err)
			}
			logging.Warn("watch: run failed", "script", r.script, "err", err)
		}
	}
	rerun()

	var timer <-chan time.Time
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != script {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Error("watch: watcher error", "err", err)
		case <-timer:
			timer = nil
			rerun()
		case <-ctx.Done():
			return nil
		}
	}
}
