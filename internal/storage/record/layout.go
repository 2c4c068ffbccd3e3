package record

import (
	"encoding/binary"
	"fmt"
)

// Kind is the wire type of a layout field.
type Kind int

const (
	Uint8 Kind = iota + 1
	Uint16
	Uint32
	Text
)

func (k Kind) String() string {
	switch k {
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Text:
		return "text"
	default:
		return "invalid"
	}
}

// Field is one entry of a layout. Size is only used by Text fields.
type Field struct {
	Name string
	Kind Kind
	Size int
}

// Width returns the encoded size of the field in bytes.
func (f Field) Width() int {
	switch f.Kind {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Uint32:
		return 4
	case Text:
		return f.Size
	default:
		return 0
	}
}

// Layout describes a fixed binary payload. Layouts are append-only: a new
// schema version may add fields at the end but never reorder, resize or
// remove existing ones.
type Layout struct {
	Name    string
	Version int
	Fields  []Field
}

// Size returns the payload size of the layout.
func (l *Layout) Size() int {
	n := 0
	for _, f := range l.Fields {
		n += f.Width()
	}
	return n
}

// Offset returns the byte offset of the named field.
func (l *Layout) Offset(name string) (int, bool) {
	off := 0
	for _, f := range l.Fields {
		if f.Name == name {
			return off, true
		}
		off += f.Width()
	}
	return 0, false
}

// Extends reports whether l is an append-only extension of old.
func (l *Layout) Extends(old *Layout) error {
	if len(l.Fields) < len(old.Fields) {
		return fmt.Errorf("record: layout %s v%d drops fields of v%d", l.Name, l.Version, old.Version)
	}
	for i, f := range old.Fields {
		if l.Fields[i] != f {
			return fmt.Errorf("record: layout %s v%d changes field %d (%s) of v%d", l.Name, l.Version, i, f.Name, old.Version)
		}
	}
	return nil
}

// Encoder writes fields in layout order.
type Encoder struct {
	layout *Layout
	buf    []byte
	next   int
	err    error
}

// NewEncoder returns an encoder for l.
func (l *Layout) NewEncoder() *Encoder {
	return &Encoder{layout: l, buf: make([]byte, 0, l.Size())}
}

func (e *Encoder) field(k Kind) (Field, bool) {
	if e.err != nil {
		return Field{}, false
	}
	if e.next >= len(e.layout.Fields) {
		e.err = fmt.Errorf("record: %s: too many fields", e.layout.Name)
		return Field{}, false
	}
	f := e.layout.Fields[e.next]
	if f.Kind != k {
		e.err = fmt.Errorf("record: %s: field %s is %s, wrote %s", e.layout.Name, f.Name, f.Kind, k)
		return Field{}, false
	}
	e.next++
	return f, true
}

// PutUint8 writes the next field as a byte.
func (e *Encoder) PutUint8(v uint8) {
	if _, ok := e.field(Uint8); ok {
		e.buf = append(e.buf, v)
	}
}

// PutBool writes the next field as a 0/1 byte.
func (e *Encoder) PutBool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	e.PutUint8(b)
}

// PutUint16 writes the next field little-endian.
func (e *Encoder) PutUint16(v uint16) {
	if _, ok := e.field(Uint16); ok {
		e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
	}
}

// PutUint32 writes the next field little-endian.
func (e *Encoder) PutUint32(v uint32) {
	if _, ok := e.field(Uint32); ok {
		e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
	}
}

// PutText writes the next field null-padded. At most Size-1 bytes of s are
// kept.
func (e *Encoder) PutText(s string) {
	f, ok := e.field(Text)
	if !ok {
		return
	}
	b := make([]byte, f.Size)
	if len(s) > f.Size-1 {
		s = s[:f.Size-1]
	}
	copy(b, s)
	e.buf = append(e.buf, b...)
}

// Bytes returns the payload once every field has been written.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.next != len(e.layout.Fields) {
		return nil, fmt.Errorf("record: %s: wrote %d of %d fields", e.layout.Name, e.next, len(e.layout.Fields))
	}
	return e.buf, nil
}

// Decoder reads fields in layout order from a payload overlaid on defaults.
type Decoder struct {
	layout *Layout
	buf    []byte
	off    int
	next   int
	stored int
	err    error
}

// NewDecoder overlays payload onto defaults and returns a decoder over the
// result. defaults must be a full payload of l, normally produced by
// encoding the compiled defaults. A shorter payload leaves trailing fields
// at their defaults; a longer one is truncated to the layout.
func (l *Layout) NewDecoder(payload, defaults []byte) *Decoder {
	d := &Decoder{layout: l, stored: len(payload)}
	if len(defaults) != l.Size() {
		d.err = fmt.Errorf("record: %s: defaults are %d bytes, layout needs %d", l.Name, len(defaults), l.Size())
		return d
	}
	d.buf = make([]byte, l.Size())
	copy(d.buf, defaults)
	copy(d.buf, payload)
	return d
}

// Partial reports whether the stored payload was shorter than the layout,
// meaning some fields hold compiled defaults.
func (d *Decoder) Partial() bool {
	return d.stored < d.layout.Size()
}

func (d *Decoder) take(k Kind) []byte {
	if d.err != nil {
		return nil
	}
	if d.next >= len(d.layout.Fields) {
		d.err = fmt.Errorf("record: %s: too many fields", d.layout.Name)
		return nil
	}
	f := d.layout.Fields[d.next]
	if f.Kind != k {
		d.err = fmt.Errorf("record: %s: field %s is %s, read %s", d.layout.Name, f.Name, f.Kind, k)
		return nil
	}
	d.next++
	b := d.buf[d.off : d.off+f.Width()]
	d.off += f.Width()
	return b
}

// Uint8 reads the next field.
func (d *Decoder) Uint8() uint8 {
	if b := d.take(Uint8); b != nil {
		return b[0]
	}
	return 0
}

// Bool reads the next field as a byte; non-zero is true.
func (d *Decoder) Bool() bool {
	return d.Uint8() != 0
}

// Uint16 reads the next field.
func (d *Decoder) Uint16() uint16 {
	if b := d.take(Uint16); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

// Uint32 reads the next field.
func (d *Decoder) Uint32() uint32 {
	if b := d.take(Uint32); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// Text reads the next field up to its first null byte.
func (d *Decoder) Text() string {
	b := d.take(Text)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Err returns the first decoding error.
func (d *Decoder) Err() error {
	return d.err
}
