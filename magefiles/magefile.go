//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type (
	Build mg.Namespace
	Test  mg.Namespace
	Lint  mg.Namespace
	Run   mg.Namespace
)

const binDir = "bin"

// Builds the splinter binary and the examples into bin/.
func (Build) All() error {
	mg.Deps(Build.Splinter)
	if _, err := executeCmd("go", withArgs("build", "-o", filepath.Join(binDir, "simple_wall"), "./examples")); err != nil {
		return err
	}
	return nil
}

// Builds bin/splinter.
func (Build) Splinter() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", filepath.Join(binDir, "splinter"), "./cmd/splinter")
}

// Runs the unit tests.
func (Test) Unit() error {
	return sh.RunV("go", "test", "./...")
}

// Runs the unit tests under the race detector.
func (Test) Race() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "-race", "./...")
}

// Runs go vet over every package.
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Runs examples/wall.lisp and writes bin/wall.splt and bin/wall.stl.
func (Run) Wall() error {
	mg.Deps(Build.Splinter)
	bin := filepath.Join(binDir, "splinter")
	wall := filepath.Join(binDir, "wall.splt")
	if _, err := executeCmd(bin, withArgs("recipe", "--out", wall, filepath.Join("examples", "wall.lisp")), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd(bin, withArgs("info", wall), withStream()); err != nil {
		return err
	}
	out, err := executeCmd(bin, withArgs("export", "--stl", filepath.Join(binDir, "wall.stl"), wall))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
