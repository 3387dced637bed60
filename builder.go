package gsdb

import (
	"fmt"
	"slices"
	"strconv"
)

// Builder assembles a tree in memory through the same calls an Encoder
// accepts, so a single write function can target either.
type Builder struct {
	name  string
	root  *Object
	cur   *Object
	stack []*Object
	err   error
}

// NewBuilder returns a builder for a fresh root object. name is used in
// error messages only.
func NewBuilder(name string) *Builder {
	root := NewObject()
	return &Builder{name: name, root: root, cur: root}
}

func (b *Builder) Depth() int {
	return len(b.stack)
}

func (b *Builder) BeginObject(key string) {
	obj := NewObject()
	b.cur.SetObject(key, obj)
	b.stack = append(b.stack, b.cur)
	b.cur = obj
}

func (b *Builder) EndObject() {
	n := len(b.stack)
	if n == 0 {
		panic("gsdb: EndObject without a matching BeginObject")
	}
	b.cur = b.stack[n-1]
	b.stack[n-1] = nil
	b.stack = b.stack[:n-1]
}

func (b *Builder) WriteString(key, value string) {
	b.cur.SetString(key, value)
}

func (b *Builder) WriteLong(key string, value int64) {
	b.cur.SetString(key, strconv.FormatInt(value, 10))
}

// WriteStringList stores a copy of list.
func (b *Builder) WriteStringList(key string, list []string) {
	b.cur.SetList(key, slices.Clone(list)...)
}

// WriteObject stores a deep copy of obj.
func (b *Builder) WriteObject(key string, obj *Object) {
	b.cur.SetObject(key, obj.Clone())
}

func (b *Builder) WriteValue(key string, v *Value) {
	if v.Kind() == KindEmpty {
		if b.err == nil {
			b.err = fmt.Errorf("gsdb: cannot write %q: node has no value", key)
		}
		return
	}
	b.cur.Set(key, v.Clone())
}

func (b *Builder) WriteRecords(obj *Object) {
	for key, v := range obj.All() {
		b.WriteValue(key, v)
	}
}

// Finish returns the built root. It fails if objects are still open.
func (b *Builder) Finish() (*Object, error) {
	if n := len(b.stack); n > 0 {
		return nil, &UnclosedObjectsError{Name: b.name, Count: n}
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.root, nil
}
