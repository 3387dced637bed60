package gsdb

import (
	"fmt"
	"io"
	"strings"
)

type DumpFlags uint64

const (
	// DumpEscaped prints strings as quoted literals instead of raw bytes.
	DumpEscaped = DumpFlags(1 << iota)
	// DumpStats appends node counts after the listing.
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	indentStep = "\t"
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes a human-readable listing of obj, one node per line with its
// kind and size.
func Dump(w io.Writer, obj *Object, f DumpFlags) error {
	d := dumper{w: w, f: f}
	d.object("", obj)
	if f.Contains(DumpStats) {
		d.printf("%d objects, %d strings, %d string lists, %d bytes of string data\n", d.objects, d.strings, d.lists, d.bytes)
	}
	return d.err
}

// DumpString is like Dump but returns the listing.
func DumpString(obj *Object, f DumpFlags) string {
	var buf strings.Builder
	Dump(&buf, obj, f)
	return buf.String()
}

type dumper struct {
	w   io.Writer
	f   DumpFlags
	err error

	objects, strings, lists, bytes int
}

func (d *dumper) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

func (d *dumper) str(s string) string {
	if d.f.Contains(DumpEscaped) {
		return Quote(s)
	}
	return "'" + s + "'"
}

func (d *dumper) object(prefix string, obj *Object) {
	for key, v := range obj.All() {
		switch v.Kind() {
		case KindEmpty:
			d.printf("%s'%s' (empty)\n", prefix, key)
		case KindObject:
			d.objects++
			d.printf("%s'%s' (object):\n", prefix, key)
			d.object(prefix+indentStep, v.obj)
			d.printf("\n")
		case KindString:
			d.strings++
			d.bytes += len(v.str)
			d.printf("%s'%s' (string(%d)): %s\n", prefix, key, len(v.str), d.str(v.str))
		case KindStringList:
			d.lists++
			d.printf("%s'%s' (stringlist(%d)):\n", prefix, key, len(v.list))
			for _, s := range v.list {
				d.bytes += len(s)
				d.printf("%s%s%s\n", prefix, indentStep, d.str(s))
			}
			d.printf("\n")
		}
	}
}
