package gsdb

import (
	"iter"
	"slices"
	"strings"
)

type Kind uint8

const (
	// KindEmpty marks a node whose type is not known yet. It only exists
	// while a record is being parsed and never appears in a finished tree.
	KindEmpty Kind = iota
	KindString
	KindStringList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindStringList:
		return "stringlist"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is one node of a database tree: a string, a list of strings, or
// a nested object.
type Value struct {
	kind Kind
	str  string
	list []string
	obj  *Object
}

func StringValue(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// ListValue returns a string list value. The slice is retained, not copied.
func ListValue(list ...string) *Value {
	if list == nil {
		list = []string{}
	}
	return &Value{kind: KindStringList, list: list}
}

func ObjectValue(obj *Object) *Value {
	if obj == nil {
		obj = NewObject()
	}
	return &Value{kind: KindObject, obj: obj}
}

func (v *Value) Kind() Kind {
	if v == nil {
		return KindEmpty
	}
	return v.kind
}

// Str returns the string payload, or "" if v is not a string.
func (v *Value) Str() string {
	if v.Kind() != KindString {
		return ""
	}
	return v.str
}

// List returns the string list payload, or nil if v is not a list.
func (v *Value) List() []string {
	if v.Kind() != KindStringList {
		return nil
	}
	return v.list
}

// Object returns the object payload, or nil if v is not an object.
func (v *Value) Object() *Object {
	if v.Kind() != KindObject {
		return nil
	}
	return v.obj
}

func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindString:
		return StringValue(v.str)
	case KindStringList:
		return ListValue(slices.Clone(v.list)...)
	case KindObject:
		return ObjectValue(v.obj.Clone())
	default:
		return &Value{}
	}
}

func (v *Value) Equal(u *Value) bool {
	if v.Kind() != u.Kind() {
		return false
	}
	switch v.Kind() {
	case KindString:
		return v.str == u.str
	case KindStringList:
		return slices.Equal(v.list, u.list)
	case KindObject:
		return v.obj.Equal(u.obj)
	default:
		return true
	}
}

// reset drops the payload and returns v to the empty state.
func (v *Value) reset() {
	v.kind = KindEmpty
	v.str = ""
	v.list = nil
	v.obj = nil
}

type Entry struct {
	Key   string
	Value *Value
}

// Object is an insertion-ordered mapping from keys to values. Key lookups
// are case-insensitive; the spelling used on insertion is what gets written
// back.
type Object struct {
	entries []Entry
}

func NewObject() *Object {
	return &Object{}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.Key
	}
	return keys
}

// All iterates over the entries in insertion order.
func (o *Object) All() iter.Seq2[string, *Value] {
	return func(yield func(string, *Value) bool) {
		if o == nil {
			return
		}
		for _, e := range o.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

func (o *Object) index(key string) int {
	if o == nil {
		return -1
	}
	for i, e := range o.entries {
		if strings.EqualFold(e.Key, key) {
			return i
		}
	}
	return -1
}

func (o *Object) Get(key string) *Value {
	if i := o.index(key); i >= 0 {
		return o.entries[i].Value
	}
	return nil
}

func (o *Object) Has(key string) bool {
	return o.index(key) >= 0
}

// Set inserts or replaces the value under key. A replaced entry keeps its
// position but takes the new key spelling. Set reports whether an existing
// entry was replaced.
func (o *Object) Set(key string, v *Value) bool {
	if v == nil {
		panic("gsdb: Set with nil value")
	}
	if i := o.index(key); i >= 0 {
		o.entries[i] = Entry{key, v}
		return true
	}
	o.entries = append(o.entries, Entry{key, v})
	return false
}

func (o *Object) SetString(key, value string) {
	o.Set(key, StringValue(value))
}

func (o *Object) SetList(key string, list ...string) {
	o.Set(key, ListValue(list...))
}

func (o *Object) SetObject(key string, obj *Object) {
	o.Set(key, ObjectValue(obj))
}

func (o *Object) Delete(key string) bool {
	i := o.index(key)
	if i < 0 {
		return false
	}
	o.entries = slices.Delete(o.entries, i, i+1)
	return true
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{entries: make([]Entry, 0, len(o.entries))}
	for _, e := range o.entries {
		if e.Value.Kind() == KindEmpty {
			continue
		}
		c.entries = append(c.entries, Entry{e.Key, e.Value.Clone()})
	}
	return c
}

// Equal reports whether both objects hold the same keys in the same order
// with equal values. Key spelling is compared exactly.
func (o *Object) Equal(p *Object) bool {
	if o.Len() != p.Len() {
		return false
	}
	for i := range o.Len() {
		a, b := o.entries[i], p.entries[i]
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

func (o *Object) reset() {
	clear(o.entries)
	o.entries = nil
}
