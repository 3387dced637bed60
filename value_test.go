package gsdb

import (
	"testing"
)

func TestKind_String(t *testing.T) {
	deepEqual(t, KindEmpty.String(), "empty")
	deepEqual(t, KindString.String(), "string")
	deepEqual(t, KindStringList.String(), "stringlist")
	deepEqual(t, KindObject.String(), "object")
	deepEqual(t, Kind(99).String(), "invalid")
}

func TestValue_Accessors(t *testing.T) {
	s := StringValue("x")
	deepEqual(t, s.Kind(), KindString)
	deepEqual(t, s.Str(), "x")
	if s.List() != nil || s.Object() != nil {
		t.Errorf("string value exposes list or object payload")
	}

	l := ListValue()
	deepEqual(t, l.Kind(), KindStringList)
	deepEqual(t, l.List(), []string{})
	deepEqual(t, l.Str(), "")

	o := ObjectValue(nil)
	deepEqual(t, o.Kind(), KindObject)
	deepEqual(t, o.Object().Len(), 0)

	var nilValue *Value
	deepEqual(t, nilValue.Kind(), KindEmpty)
	deepEqual(t, nilValue.Str(), "")
}

func TestObject_InsertionOrder(t *testing.T) {
	o := NewObject()
	for _, k := range []string{"zeta", "alpha", "mid"} {
		o.SetString(k, k)
	}
	deepEqual(t, o.Keys(), []string{"zeta", "alpha", "mid"})

	var seen []string
	for k, v := range o.All() {
		seen = append(seen, k+"="+v.Str())
		if k == "alpha" {
			break
		}
	}
	deepEqual(t, seen, []string{"zeta=zeta", "alpha=alpha"})
}

func TestObject_SetReplacesInPlace(t *testing.T) {
	o := NewObject()
	o.SetString("a", "1")
	o.SetString("b", "2")
	if replaced := o.Set("A", StringValue("3")); !replaced {
		t.Fatalf("Set on existing key reported no replacement")
	}
	deepEqual(t, o.Keys(), []string{"A", "b"})
	deepEqual(t, o.Get("a").Str(), "3")
	deepEqual(t, o.Has("B"), true)
	deepEqual(t, o.Has("c"), false)
}

func TestObject_Delete(t *testing.T) {
	o := NewObject()
	o.SetString("a", "1")
	o.SetString("b", "2")
	o.SetString("c", "3")
	deepEqual(t, o.Delete("B"), true)
	deepEqual(t, o.Delete("b"), false)
	deepEqual(t, o.Keys(), []string{"a", "c"})
}

func TestObject_Clone(t *testing.T) {
	o := sampleTree()
	o.Set("empty", &Value{})
	c := o.Clone()

	if c.Has("empty") {
		t.Errorf("Clone kept an empty node")
	}
	o.Delete("empty")
	treeEqual(t, c, o)

	o.FetchObject("obj/inner").SetString("d", "changed")
	o.Get("l").List()[0] = "changed"
	deepEqual(t, c.Get("l").List(), []string{"a", "b"})
	if s, _ := c.FetchString("obj/inner/d"); s != "e" {
		t.Errorf("clone shares nested objects with the original")
	}
}

func TestObject_Equal(t *testing.T) {
	a, b := sampleTree(), sampleTree()
	deepEqual(t, a.Equal(b), true)

	b.SetString("name", "y")
	deepEqual(t, a.Equal(b), false)

	c := NewObject()
	c.SetString("Name", "x")
	d := NewObject()
	d.SetString("name", "x")
	deepEqual(t, c.Equal(d), false)

	var nilObj *Object
	deepEqual(t, nilObj.Equal(NewObject()), true)
}

func TestObject_SetNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Set with a nil value did not panic")
		}
	}()
	NewObject().Set("k", nil)
}
