package mmap

import "os"

// Fdatasync flushes the data written to f to stable storage without
// necessarily flushing metadata such as modification times.
//
// A failed sync leaves the file in an unknown state; callers must abandon
// it rather than retry.
func Fdatasync(f *os.File) error {
	return fdatasync(f)
}
