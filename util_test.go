package gsdb

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

// treeEqual compares two trees and prints a diff of their dumps on mismatch.
func treeEqual(t testing.TB, a, e *Object) {
	if !a.Equal(e) {
		t.Helper()
		t.Errorf("** tree mismatch (-wanted +got):\n%s", cmp.Diff(DumpString(e, DumpEscaped), DumpString(a, DumpEscaped)))
	}
}

func textEqual(t testing.TB, a, e string) {
	if a != e {
		t.Helper()
		t.Errorf("** text mismatch (-wanted +got):\n%s", cmp.Diff(e, a))
	}
}

func mustParse(t testing.TB, data string) *Object {
	t.Helper()
	root, err := Parse(t.Name(), []byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return root
}

func mustMarshal(t testing.TB, obj *Object) string {
	t.Helper()
	data, err := Marshal(obj)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}

func writeFile(t testing.TB, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	ensure(os.WriteFile(path, []byte(data), 0o644))
	return path
}

func readFile(t testing.TB, path string) string {
	t.Helper()
	return string(must(os.ReadFile(path)))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// testParser returns a parser over data for tests that poke at individual
// grammar rules.
func testParser(data string) *parser {
	return newParser(context.Background(), "test", &bufferSource{data: []byte(data)}, nil, false)
}

// abortCode runs f and returns the code it aborted with, or 0.
func abortCode(f func()) (code ErrorCode) {
	defer func() {
		if e := recover(); e != nil {
			code = e.(parseAbort).code
		}
	}()
	f()
	return 0
}
