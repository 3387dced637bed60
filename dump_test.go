package gsdb

import (
	"testing"
)

func TestDump(t *testing.T) {
	root := mustParse(t, `"name" = "x"; "l" = ("a", "b"); "obj" = { "k" = "v"; };`)

	textEqual(t, DumpString(root, 0), `'name' (string(1)): 'x'
'l' (stringlist(2)):
	'a'
	'b'

'obj' (object):
	'k' (string(1)): 'v'

`)
}

func TestDump_EscapedWithStats(t *testing.T) {
	root := mustParse(t, `"s" = "a\nb"; "o" = { "l" = ("\C"); };`)

	textEqual(t, DumpString(root, DumpAll), `'s' (string(3)): "a\nb"
'o' (object):
	'l' (stringlist(1)):
		"\C"


1 objects, 1 strings, 1 string lists, 4 bytes of string data
`)
}

func TestDumpFlags_Contains(t *testing.T) {
	deepEqual(t, DumpAll.Contains(DumpStats), true)
	deepEqual(t, DumpEscaped.Contains(DumpStats), false)
	deepEqual(t, (DumpEscaped | DumpStats).Contains(DumpEscaped|DumpStats), true)
}
