package mmap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsHas(t *testing.T) {
	var o Options = SequentialAccess | Prefault
	if !o.Has(SequentialAccess) || o.Has(RandomAccess) {
		t.Fatalf("Options.Has returned unexpected results for %v", o)
	}
}

func TestMapFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "test.db")
	ensure(os.WriteFile(fn, []byte(`"a" = "b";`), 0o644))

	f := must(os.Open(fn))
	defer f.Close()

	b, err := MapFile(f, SequentialAccess|Prefault)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	if string(b) != `"a" = "b";` {
		t.Fatalf("MapFile = %q, wanted file contents", b)
	}
	if err := Unmap(b); err != nil {
		t.Fatalf("Unmap: %v", err)
	}
}

func TestMap_Empty(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "mmap_test_*"))
	defer f.Close()

	_, err := MapFile(f, 0)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("MapFile(empty) err = %v, wanted ErrEmpty", err)
	}
	if err := Unmap(nil); err != nil {
		t.Fatalf("Unmap(nil) = %v, wanted nil", err)
	}
}

func TestMap_Negative(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "mmap_test_*"))
	defer f.Close()

	_, err := Map(f, -1, 0)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Map(-1) err = %v, wanted ErrTooLarge", err)
	}
}

func TestFdatasync(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "mmap_test_*"))
	defer f.Close()

	must(f.WriteString("hello"))
	if err := Fdatasync(f); err != nil {
		t.Fatalf("Fdatasync: %v", err)
	}
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
