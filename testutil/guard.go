// Package testutil provides test helpers that keep package layering intact.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TB is the subset of testing.TB the guards need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// AssertNoDirectImports parses every non-test .go file in dir and fails when
// an import path satisfies forbidden. Build tags are not evaluated.
func AssertNoDirectImports(t TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// InternalImportForbidden matches any housingcore internal package.
func InternalImportForbidden(path string) bool {
	return strings.HasPrefix(path, "housingcore/internal/")
}

// InfraImportForbidden matches storage, blob and command packages, which pure
// domain logic must not reach into.
func InfraImportForbidden(path string) bool {
	for _, prefix := range []string{
		"housingcore/internal/infra/",
		"housingcore/internal/storage",
		"housingcore/internal/blob",
		"housingcore/internal/app",
		"housingcore/cmd/",
		"database/sql",
	} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func directImportViolations(dir string, forbidden func(string) bool) ([]string, error) {
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
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, err
			}
			if forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	return viols, nil
}
