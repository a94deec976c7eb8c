// Package test provides fixture lookup for tests that load programs
// from the _fixtures directory at the root of the repository.
package test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-skink/skink/pkg/asm"
)

// Fixture is a test program.
type Fixture struct {
	// Name is the short name of the fixture.
	Name string
	// Path is the absolute path to the program source.
	Path string
}

// Fixtures is a map of Fixture.Name to Fixture.
var Fixtures = make(map[string]Fixture)

// FindFixturesDir returns the path of the _fixtures directory relative
// to the package the calling test runs in.
func FindFixturesDir() string {
	parent := ".."
	fixturesDir := "_fixtures"
	for depth := 0; depth < 10; depth++ {
		if _, err := os.Stat(fixturesDir); err == nil {
			break
		}
		fixturesDir = filepath.Join(parent, fixturesDir)
	}
	return fixturesDir
}

// BuildFixture assembles the named test program once, to make sure it
// is well formed, and returns its location.
func BuildFixture(name string) Fixture {
	if f, ok := Fixtures[name]; ok {
		return f
	}

	path, err := filepath.Abs(filepath.Join(FindFixturesDir(), name+".ska"))
	if err == nil {
		_, err = asm.AssembleFile(path)
	}
	if err != nil {
		fmt.Printf("Error assembling %s: %s\n", name, err)
		os.Exit(1)
	}

	Fixtures[name] = Fixture{Name: name, Path: path}
	return Fixtures[name]
}
