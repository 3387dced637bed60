package gsdb

import (
	"testing"
)

func TestTracker(t *testing.T) {
	var tr tracker

	s := "key"
	buf := []byte("partial")
	list := []string{"a"}
	obj := NewObject()
	obj.SetString("k", "v")
	node := StringValue("v")

	h := tr.track(allocString, &s)
	if h2 := tr.track(allocString, &s); h2 != h {
		t.Fatalf("tracking the same pointer twice gave handles %v and %v", h, h2)
	}
	tr.track(allocBuffer, &buf)
	tr.track(allocList, &list)
	tr.track(allocObject, obj)
	hn := tr.track(allocNode, node)
	deepEqual(t, tr.live(), 5)

	tr.untrack(hn)
	tr.untrack(hn)
	deepEqual(t, tr.live(), 4)

	deepEqual(t, tr.release(), 4)
	deepEqual(t, tr.live(), 0)
	deepEqual(t, tr.total, 5)

	deepEqual(t, s, "")
	if buf != nil || list != nil {
		t.Errorf("release left buf=%q list=%q", buf, list)
	}
	deepEqual(t, obj.Len(), 0)
	deepEqual(t, node.Str(), "v")
}

func TestTracker_UntrackOutOfOrder(t *testing.T) {
	var tr tracker
	a, b, c := NewObject(), NewObject(), NewObject()
	ha := tr.track(allocObject, a)
	hb := tr.track(allocObject, b)
	tr.untrack(ha)
	deepEqual(t, tr.live(), 1)

	hc := tr.track(allocObject, c)
	tr.untrack(hb)
	tr.untrack(hc)
	deepEqual(t, tr.live(), 0)
	deepEqual(t, len(tr.allocs), 0)
}

func TestTracker_StaleHandle(t *testing.T) {
	var tr tracker
	a, b := NewObject(), NewObject()
	ha := tr.track(allocObject, a)
	tr.untrack(ha)
	deepEqual(t, len(tr.allocs), 0)

	hb := tr.track(allocObject, b)
	deepEqual(t, hb.slot, ha.slot)
	tr.untrack(ha)
	deepEqual(t, tr.live(), 1)

	tr.untrack(handle{slot: 5, id: 99})
	deepEqual(t, tr.live(), 1)

	b.SetString("k", "v")
	deepEqual(t, tr.release(), 1)
	deepEqual(t, b.Len(), 0)
}

func TestTracker_ReleaseNode(t *testing.T) {
	var tr tracker
	node := &Value{}
	tr.track(allocNode, node)
	node.kind = KindStringList
	node.list = []string{"a"}

	deepEqual(t, tr.release(), 1)
	deepEqual(t, node.Kind(), KindEmpty)
	if node.list != nil {
		t.Errorf("release left node payload %q", node.list)
	}
}
