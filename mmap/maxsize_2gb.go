//go:build 386 || arm || mips || mipsle || ppc

package mmap

// MaxSize is the largest file Map will accept.
const MaxSize = 0x7FFFFFFF // 2GB
