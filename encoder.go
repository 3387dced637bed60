package gsdb

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// RecordWriter receives a database tree one record at a time. Encoder
// streams records as text; Builder assembles them into an Object.
type RecordWriter interface {
	BeginObject(key string)
	EndObject()
	WriteString(key, value string)
	WriteLong(key string, value int64)
	WriteStringList(key string, list []string)
	WriteObject(key string, obj *Object)
	WriteValue(key string, v *Value)
	WriteRecords(obj *Object)
	Depth() int
}

var (
	_ RecordWriter = (*Encoder)(nil)
	_ RecordWriter = (*Builder)(nil)
)

// Encoder writes records in the canonical text format, one record per
// line, nested objects indented with tabs. The first write error sticks
// and turns every later call into a no-op.
type Encoder struct {
	w     *bufio.Writer
	depth int
	err   error
	buf   []byte
}

func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Encoder{w: bw}
}

func (e *Encoder) Depth() int {
	return e.depth
}

// Err returns the first error encountered while writing.
func (e *Encoder) Err() error {
	return e.err
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	e.err = e.w.Flush()
	return e.err
}

func (e *Encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *Encoder) start(key string) {
	e.buf = e.buf[:0]
	for range e.depth {
		e.buf = append(e.buf, '\t')
	}
	e.buf = appendQuoted(e.buf, key)
	e.buf = append(e.buf, " = "...)
}

func (e *Encoder) BeginObject(key string) {
	e.start(key)
	e.buf = append(e.buf, "{\n"...)
	e.write(e.buf)
	e.depth++
}

// EndObject closes the innermost object opened by BeginObject. Calling it
// with no open object is a programming error and panics.
func (e *Encoder) EndObject() {
	if e.depth == 0 {
		panic("gsdb: EndObject without a matching BeginObject")
	}
	e.depth--
	e.buf = e.buf[:0]
	for range e.depth {
		e.buf = append(e.buf, '\t')
	}
	e.buf = append(e.buf, "};\n"...)
	e.write(e.buf)
}

func (e *Encoder) WriteString(key, value string) {
	e.start(key)
	e.buf = appendQuoted(e.buf, value)
	e.buf = append(e.buf, ";\n"...)
	e.write(e.buf)
}

func (e *Encoder) WriteLong(key string, value int64) {
	e.WriteString(key, strconv.FormatInt(value, 10))
}

func (e *Encoder) WriteStringList(key string, list []string) {
	e.start(key)
	e.buf = append(e.buf, '(')
	for i, s := range list {
		if i > 0 {
			e.buf = append(e.buf, ", "...)
		}
		e.buf = appendQuoted(e.buf, s)
	}
	e.buf = append(e.buf, ");\n"...)
	e.write(e.buf)
}

// WriteObject writes obj as a nested object record named key.
func (e *Encoder) WriteObject(key string, obj *Object) {
	e.BeginObject(key)
	e.WriteRecords(obj)
	e.EndObject()
}

func (e *Encoder) WriteValue(key string, v *Value) {
	switch v.Kind() {
	case KindString:
		e.WriteString(key, v.str)
	case KindStringList:
		e.WriteStringList(key, v.list)
	case KindObject:
		e.WriteObject(key, v.obj)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("gsdb: cannot write %q: node has no value", key)
		}
	}
}

// WriteRecords writes every entry of obj at the current depth, without
// surrounding braces. Writing a root object this way produces a complete
// database file.
func (e *Encoder) WriteRecords(obj *Object) {
	for key, v := range obj.All() {
		e.WriteValue(key, v)
	}
}

// Marshal returns the canonical text form of a root object.
func Marshal(obj *Object) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteRecords(obj)
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Quote returns s as a quoted string literal in database syntax.
func Quote(s string) string {
	return string(appendQuoted(make([]byte, 0, len(s)+2), s))
}

func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			buf = append(buf, `\\`...)
		case '"':
			buf = append(buf, `\"`...)
		case '\n':
			buf = append(buf, `\n`...)
		case '\r':
			buf = append(buf, `\r`...)
		case '\t':
			buf = append(buf, `\t`...)
		case 0x1B:
			buf = append(buf, `\C`...)
		case 0x01:
			buf = append(buf, `\1`...)
		case 0x02:
			buf = append(buf, `\2`...)
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}
