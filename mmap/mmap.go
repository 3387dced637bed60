// Package mmap maps database files into memory for reading. Mappings are
// always read-only.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

type Options uint

const (
	// SequentialAccess is a hint requesting aggressive read-ahead.
	// Incompatible with RandomAccess. Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << 0

	// RandomAccess is a hint that read ahead is less useful than normally.
	// Incompatible with SequentialAccess. Maps to MADV_RANDOM on Unix.
	RandomAccess Options = 1 << 1

	// Prefault is a hint requesting the entire file to be loaded in memory
	// for fastest access. Maps to MAP_POPULATE on Linux.
	Prefault Options = 1 << 2
)

var (
	// ErrEmpty is returned when asked to map a zero-length file; mmap(2)
	// rejects zero-length mappings, so callers read such files directly.
	ErrEmpty = errors.New("mmap: cannot map an empty file")

	// ErrTooLarge is returned when the file exceeds MaxSize.
	ErrTooLarge = errors.New("mmap: file too large to map")
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

// Map memory maps the first size bytes of f.
func Map(f *os.File, size int, opt Options) ([]byte, error) {
	if size == 0 {
		return nil, ErrEmpty
	}
	if size < 0 || int64(size) > MaxSize {
		return nil, ErrTooLarge
	}
	return mmap(f, size, opt)
}

// MapFile maps the entire contents of f.
func MapFile(f *os.File, opt Options) ([]byte, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size > MaxSize || int64(int(size)) != size {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, f.Name(), size)
	}
	return Map(f, int(size), opt)
}

// Unmap unmaps the given slice from memory. The slice must have been returned
// by Map or MapFile. Unmapping an empty slice is a no-op.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return munmap(b)
}
