package gsdb

import "fmt"

type allocKind uint8

const (
	allocBuffer allocKind = iota + 1 // *[]byte, a string being scanned
	allocString                      // *string
	allocList                        // *[]string
	allocObject                      // *Object
	allocNode                        // *Value
)

func (k allocKind) String() string {
	switch k {
	case allocBuffer:
		return "buffer"
	case allocString:
		return "string"
	case allocList:
		return "stringlist"
	case allocObject:
		return "object"
	case allocNode:
		return "node"
	default:
		return fmt.Sprintf("allocKind(%d)", uint8(k))
	}
}

type allocation struct {
	kind allocKind
	ptr  any
	id   int
}

// handle identifies one tracked allocation. Slots are reused once freed, so
// a handle also carries the allocation's id and goes stale when its slot is
// taken over.
type handle struct {
	slot int
	id   int
}

// tracker records every partially built piece of a tree while a parse is
// in progress, so that an aborted parse can reset all of them at once.
// Anything attached to its final parent is untracked.
type tracker struct {
	allocs []allocation
	nlive  int
	total  int
}

// track registers ptr and returns a handle for untrack. Tracking a pointer
// that is already live returns its existing handle.
func (t *tracker) track(kind allocKind, ptr any) handle {
	for i := len(t.allocs) - 1; i >= 0; i-- {
		if a := t.allocs[i]; a.ptr == ptr {
			return handle{i, a.id}
		}
	}
	t.nlive++
	t.total++
	t.allocs = append(t.allocs, allocation{kind, ptr, t.total})
	return handle{len(t.allocs) - 1, t.total}
}

// untrack forgets the allocation behind h. Untracking twice, or untracking
// a handle whose slot has since been reused, does nothing.
func (t *tracker) untrack(h handle) {
	if h.slot < 0 || h.slot >= len(t.allocs) || t.allocs[h.slot].id != h.id || h.id == 0 {
		return
	}
	t.allocs[h.slot] = allocation{}
	t.nlive--
	// Allocations nest, so freed slots are almost always at the end.
	for n := len(t.allocs); n > 0 && t.allocs[n-1].ptr == nil; n-- {
		t.allocs = t.allocs[:n-1]
	}
}

func (t *tracker) live() int {
	return t.nlive
}

// release resets every live allocation, innermost first, and empties the
// tracker. It returns the number of allocations released.
func (t *tracker) release() int {
	n := 0
	for i := len(t.allocs) - 1; i >= 0; i-- {
		a := t.allocs[i]
		if a.ptr == nil {
			continue
		}
		switch a.kind {
		case allocBuffer:
			*a.ptr.(*[]byte) = nil
		case allocString:
			*a.ptr.(*string) = ""
		case allocList:
			*a.ptr.(*[]string) = nil
		case allocObject:
			a.ptr.(*Object).reset()
		case allocNode:
			a.ptr.(*Value).reset()
		default:
			panic(fmt.Errorf("gsdb: unknown allocation kind %v", a.kind))
		}
		n++
	}
	clear(t.allocs)
	t.allocs = t.allocs[:0]
	t.nlive = 0
	return n
}

// ParseStats reports allocation tracking totals for a single parse.
type ParseStats struct {
	Tracked  int // allocations registered over the whole parse
	Released int // allocations reset because the parse failed
}
