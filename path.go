package gsdb

import (
	"fmt"
	"strings"
)

// splitPath splits a slash-delimited node path. A single leading and
// a single trailing slash are ignored; an empty path is invalid.
func splitPath(path string) ([]string, bool) {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil, false
	}
	return strings.Split(path, "/"), true
}

// Fetch walks a slash-delimited path (e.g. "sshkey/pub") through nested
// objects and returns the node found there, or nil.
func (o *Object) Fetch(path string) *Value {
	parts, ok := splitPath(path)
	if !ok {
		return nil
	}
	cur := o
	for _, key := range parts[:len(parts)-1] {
		cur = cur.Get(key).Object()
		if cur == nil {
			return nil
		}
	}
	return cur.Get(parts[len(parts)-1])
}

// FetchKind returns the node at path only if it has the given kind.
func (o *Object) FetchKind(path string, kind Kind) *Value {
	v := o.Fetch(path)
	if v.Kind() != kind {
		return nil
	}
	return v
}

func (o *Object) FetchString(path string) (string, bool) {
	v := o.FetchKind(path, KindString)
	if v == nil {
		return "", false
	}
	return v.str, true
}

func (o *Object) FetchList(path string) ([]string, bool) {
	v := o.FetchKind(path, KindStringList)
	if v == nil {
		return nil, false
	}
	return v.list, true
}

func (o *Object) FetchObject(path string) *Object {
	return o.FetchKind(path, KindObject).Object()
}

// SetPath stores v at path, creating intermediate objects as needed. It
// fails if an intermediate node exists and is not an object.
func (o *Object) SetPath(path string, v *Value) error {
	parts, ok := splitPath(path)
	if !ok {
		return fmt.Errorf("invalid path %q", path)
	}
	cur := o
	for i, key := range parts[:len(parts)-1] {
		next := cur.Get(key)
		if next == nil {
			child := NewObject()
			cur.SetObject(key, child)
			cur = child
			continue
		}
		if next.Kind() != KindObject {
			return fmt.Errorf("%s: %s is a %v, not an object", path, strings.Join(parts[:i+1], "/"), next.Kind())
		}
		cur = next.obj
	}
	cur.Set(parts[len(parts)-1], v)
	return nil
}

// DeletePath removes the node at path and reports whether it existed.
func (o *Object) DeletePath(path string) bool {
	parts, ok := splitPath(path)
	if !ok {
		return false
	}
	parent := o
	if len(parts) > 1 {
		parent = o.FetchObject(strings.Join(parts[:len(parts)-1], "/"))
	}
	return parent.Delete(parts[len(parts)-1])
}

// Walk calls fn for every string and string list in o, depth first in
// insertion order, passing the full slash-delimited path. Walk stops when
// fn returns false.
func (o *Object) Walk(fn func(path string, v *Value) bool) {
	o.walk("", fn)
}

func (o *Object) walk(prefix string, fn func(path string, v *Value) bool) bool {
	for key, v := range o.All() {
		path := prefix + key
		if v.Kind() == KindObject {
			if !v.obj.walk(path+"/", fn) {
				return false
			}
			continue
		}
		if !fn(path, v) {
			return false
		}
	}
	return true
}
