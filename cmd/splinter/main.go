// splinter fractures geometry collections from the command line. Every
// subcommand reads and writes collections in the compressed binary format
// of package codec and accepts the global overrides of package config.
//
//	splinter box --grid 4,1,2 wall.splt
//	splinter voronoi --sites 12 --select leaves wall.splt
//	splinter autocluster --sites 3 wall.splt
//	splinter export --stl wall.stl wall.splt
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/chazu/splinter/pkg/config"
	"github.com/chazu/splinter/pkg/logging"
)

// errUsage asks main to exit with status 2 after usage was printed.
var errUsage = errors.New("usage")

// command is one subcommand. setup binds its flags and returns the body
// to run once flags and settings are resolved.
type command struct {
	name    string
	args    string
	summary string
	setup   func(fs *pflag.FlagSet) func(e *env) error
}

var commands = []command{
	{"box", "<out>", "create a collection from a box or a grid of boxes", boxCommand},
	{"info", "<in>", "print the hierarchy and its validation findings", infoCommand},
	{"voronoi", "<in> [out]", "cut into the Voronoi cells of scattered sites", voronoiCommand},
	{"plane", "<in> [out]", "cut with random planes", planeCommand},
	{"slice", "<in> [out]", "cut with a grid of slices", sliceCommand},
	{"brick", "<in> [out]", "cut into bricks", brickCommand},
	{"mesh", "<in> [out]", "cut with placed primitive meshes", meshCommand},
	{"uniform", "<in> [out]", "cut each bone into uniformly scattered cells", uniformCommand},
	{"autocluster", "<in> [out]", "group children into clusters", autoclusterCommand},
	{"fixtiny", "<in> [out]", "merge tiny pieces into their neighbours", fixTinyCommand},
	{"explode", "<in> [out]", "store exploded view offsets", explodeCommand},
	{"recipe", "<script>", "run a recipe script", recipeCommand},
	{"watch", "<script>", "re-run a recipe whenever it changes", watchCommand},
	{"export", "<in>", "write world space meshes as JSON or STL", exportCommand},
	{"config", "", "print the resolved settings", configCommand},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if err != errUsage {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return errUsage
	}
	name, rest := args[0], args[1:]
	switch name {
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	}
	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", name)
		printUsage(os.Stderr)
		return errUsage
	}

	fs := pflag.NewFlagSet("splinter "+cmd.name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	global := config.AddFlags(fs)
	body := cmd.setup(fs)

	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(out, cmd, fs)
			return nil
		}
		return fmt.Errorf("%s: %w", cmd.name, err)
	}
	cfg, err := global.Resolve()
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Log.Level, logging.DefaultFileConfig(cfg.Log.File), true); err != nil {
		return err
	}
	defer logging.Close()
	if err := logging.SetFormat(cfg.Log.Format); err != nil {
		return err
	}
	logging.Debug("splinter: starting", "command", cmd.name, "config", global.Path)

	if err := body(newEnv(cfg, fs.Args(), out)); err != nil {
		return fmt.Errorf("%s: %w", cmd.name, err)
	}
	return nil
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "splinter - fracture geometry collections")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  splinter <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "splinter <command> --help" for the flags of a command.`)
}

func printCommandHelp(w io.Writer, cmd command, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  splinter %s [flags] %s\n\nFlags:\n", cmd.summary, cmd.name, cmd.args)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// usagef reports a bad positional argument list.
func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, strings.TrimSpace(fmt.Sprintf(format, args...)))
}
