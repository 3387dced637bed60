//go:build unix

package mmap

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int, opt Options) ([]byte, error) {
	flags := unix.MAP_SHARED
	if opt.Has(Prefault) {
		flags |= mapPopulate
	}

	b, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, flags)
	if err != nil {
		return nil, err
	}

	var advice int
	var adviceName string
	if opt.Has(SequentialAccess) {
		advice, adviceName = unix.MADV_SEQUENTIAL, "MADV_SEQUENTIAL"
	} else if opt.Has(RandomAccess) {
		advice, adviceName = unix.MADV_RANDOM, "MADV_RANDOM"
	}
	if adviceName != "" {
		err = unix.Madvise(b, advice)
		if err != nil && err != syscall.ENOSYS {
			// ENOSYS is fine: the kernel ignores the hint but the mapping works.
			_ = unix.Munmap(b)
			return nil, fmt.Errorf("madvise(%s): %w", adviceName, err)
		}
	}

	return b, nil
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
