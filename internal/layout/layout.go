// Package layout describes fixed record formats, and decodes records from a window cursor.
//
// A layout is a comma separated list of fields, each in the form of [name=]kind[:size]. The supported kinds:
//
// 	byte     a single byte, printed as a number
// 	char     a single character
// 	bytes:n  n raw bytes, printed in hex
// 	chars:n  n characters
// 	i16      big-endian unsigned 16 bit integer
// 	i32      big-endian unsigned 32 bit integer
// 	cstr     zero terminated string
// 	str:n    n byte wide string
// 	int:n    n byte wide decimal number
// 	date:n   n byte wide date
//
// Unnamed fields are named by their position, e.g. f0, f1.
package layout

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aryszka/segbuf"
)

// Kind is the type of a field.
type Kind int

const (
	Byte Kind = iota
	Char
	Bytes
	Chars
	Int16
	Int32
	CString
	String
	StrInt
	Date
)

var kinds = []struct {
	name  string
	sized bool
}{
	Byte:    {"byte", false},
	Char:    {"char", false},
	Bytes:   {"bytes", true},
	Chars:   {"chars", true},
	Int16:   {"i16", false},
	Int32:   {"i32", false},
	CString: {"cstr", false},
	String:  {"str", true},
	StrInt:  {"int", true},
	Date:    {"date", true},
}

// ErrInvalid is wrapped by the errors of Parse.
var ErrInvalid = errors.New("invalid layout")

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kinds) {
		return "unknown"
	}

	return kinds[k].name
}

// Field describes one field of a record.
type Field struct {
	Name string
	Kind Kind
	Size int
}

func (f Field) String() string {
	s := f.Name + "=" + f.Kind.String()
	if kinds[f.Kind].sized {
		s += ":" + strconv.Itoa(f.Size)
	}

	return s
}

// Layout is an ordered list of fields.
type Layout []Field

func (l Layout) String() string {
	s := make([]string, len(l))
	for i, f := range l {
		s[i] = f.String()
	}

	return strings.Join(s, ",")
}

// Names returns the field names in order.
func (l Layout) Names() []string {
	n := make([]string, len(l))
	for i, f := range l {
		n[i] = f.Name
	}

	return n
}

func parseKind(s string) (Kind, bool) {
	for k, ki := range kinds {
		if ki.name == s {
			return Kind(k), true
		}
	}

	return 0, false
}

func parseField(i int, s string) (Field, error) {
	f := Field{Name: fmt.Sprintf("f%d", i)}
	if name, rest, ok := strings.Cut(s, "="); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return Field{}, fmt.Errorf("%w: empty field name in %q", ErrInvalid, s)
		}

		f.Name, s = name, rest
	}

	kind, size, sized := strings.Cut(strings.TrimSpace(s), ":")
	k, ok := parseKind(kind)
	if !ok {
		return Field{}, fmt.Errorf("%w: unknown field kind %q", ErrInvalid, kind)
	}

	f.Kind = k
	if kinds[k].sized != sized {
		if sized {
			return Field{}, fmt.Errorf("%w: field kind %s doesn't take a size", ErrInvalid, kind)
		}

		return Field{}, fmt.Errorf("%w: field kind %s requires a size", ErrInvalid, kind)
	}

	if sized {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return Field{}, fmt.Errorf("%w: invalid size %q", ErrInvalid, size)
		}

		f.Size = n
	}

	return f, nil
}

// Parse parses a layout definition.
func Parse(s string) (Layout, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalid)
	}

	var l Layout
	names := make(map[string]bool)
	for i, fs := range strings.Split(s, ",") {
		f, err := parseField(i, fs)
		if err != nil {
			return nil, err
		}

		if names[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field name %q", ErrInvalid, f.Name)
		}

		names[f.Name] = true
		l = append(l, f)
	}

	return l, nil
}

// Value is a decoded field.
type Value struct {
	Field Field
	Value any
}

// Record is a decoded set of values, in the order of the layout.
type Record []Value

func (f Field) decode(c *segbuf.Cursor) (any, error) {
	switch f.Kind {
	case Byte:
		return c.ReadByte()
	case Char:
		return c.ReadChar()
	case Bytes:
		return c.ReadBytes(f.Size)
	case Chars:
		return c.ReadChars(f.Size)
	case Int16:
		return c.ReadInt16()
	case Int32:
		return c.ReadInt32()
	case CString:
		return c.ReadCString()
	case String:
		return c.ReadString(f.Size)
	case StrInt:
		return c.ReadStrInt(f.Size)
	case Date:
		return c.ReadDate(f.Size)
	default:
		return nil, fmt.Errorf("%w: unknown field kind %d", ErrInvalid, f.Kind)
	}
}

// Decode reads one record at the position of the cursor. On failure, the cursor is left wherever the failing
// field stopped, so callers that need to retry should decode with a clone.
func (l Layout) Decode(c *segbuf.Cursor) (Record, error) {
	r := make(Record, 0, len(l))
	for _, f := range l {
		v, err := f.decode(c)
		if err != nil {
			if err == io.EOF {
				return nil, err
			}

			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		r = append(r, Value{Field: f, Value: v})
	}

	return r, nil
}

// Get returns the value of a named field.
func (r Record) Get(name string) (any, bool) {
	for _, v := range r {
		if v.Field.Name == name {
			return v.Value, true
		}
	}

	return nil, false
}

func (v Value) String() string {
	switch vi := v.Value.(type) {
	case []byte:
		return hex.EncodeToString(vi)
	case rune:
		return string(vi)
	case []rune:
		return string(vi)
	case time.Time:
		if vi.IsZero() {
			return "-"
		}

		return vi.Format(time.RFC3339)
	default:
		return fmt.Sprint(vi)
	}
}

// String renders the values of the record separated by tabs.
func (r Record) String() string {
	s := make([]string, len(r))
	for i, v := range r {
		s[i] = v.String()
	}

	return strings.Join(s, "\t")
}
