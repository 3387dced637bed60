//go:build amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x

package mmap

// MaxSize is the largest file Map will accept.
const MaxSize = 0xFFFFFFFFFFFF // 256TB
