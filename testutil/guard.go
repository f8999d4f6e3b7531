// Package testutil holds import guards used by architecture tests.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// ModulePath is the import path prefix of this module.
const ModulePath = "upvcerp"

// AssertNoTransitiveDependency loads pattern with its full dependency graph
// and fails when any reachable package matches forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	deps, err := loadDeps(pattern)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	report(t, "forbidden transitive dependency", reason, matching(deps, forbidden))
}

// AssertNoDirectImports parses the non-test files in dir and fails when an
// import matches forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, "forbidden import", reason, viols)
}

// InternalImportForbidden matches import paths that cross an internal/ boundary.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// IsStdlib reports whether path is a standard library package: its first
// element has no dot and is not this module.
func IsStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".") && first != ModulePath
}

// ImportOutside forbids everything except the standard library and the
// allowed packages (and their subpackages).
func ImportOutside(allowed ...string) func(string) bool {
	return func(path string) bool {
		if IsStdlib(path) {
			return false
		}
		for _, prefix := range allowed {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return false
			}
		}
		return true
	}
}

// loadDeps returns the import paths reachable from pattern, roots included.
var loadDeps = func(pattern string) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	roots, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	var loadErrs []string
	seen := map[string]bool{}
	packages.Visit(roots, nil, func(p *packages.Package) {
		seen[p.PkgPath] = true
		for _, e := range p.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
	})
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(loadErrs, "; "))
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func matching(paths []string, forbidden func(string) bool) []string {
	var out []string
	for _, p := range paths {
		if forbidden(p) {
			out = append(out, p)
		}
	}
	return out
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			if path := strings.Trim(imp.Path.Value, `"`); forbidden(path) {
				viols = append(viols, fmt.Sprintf("%s (in %s)", path, name))
			}
		}
	}
	return viols, nil
}

type fatalf interface {
	Fatalf(format string, args ...any)
}

func report(t fatalf, what, reason string, viols []string) {
	if len(viols) == 0 {
		return
	}
	t.Fatalf("%s (%s):\n  %s", what, reason, strings.Join(viols, "\n  "))
}
