package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
)

// Value is one decoded field in printable form.
type Value struct {
	Name  string `json:"name" yaml:"name"`
	Kind  string `json:"kind" yaml:"kind"`
	Value string `json:"value" yaml:"value"`
}

// Values decodes payload field by field without a typed destination. Fields
// past the end of a short payload are reported with an empty value and
// partial is set.
func (l *Layout) Values(payload []byte) (values []Value, partial bool) {
	off := 0
	for _, f := range l.Fields {
		v := Value{Name: f.Name, Kind: f.Kind.String()}
		w := f.Width()
		if off+w <= len(payload) {
			b := payload[off : off+w]
			switch f.Kind {
			case Uint8:
				v.Value = strconv.FormatUint(uint64(b[0]), 10)
			case Uint16:
				v.Value = strconv.FormatUint(uint64(binary.LittleEndian.Uint16(b)), 10)
			case Uint32:
				v.Value = strconv.FormatUint(uint64(binary.LittleEndian.Uint32(b)), 10)
			case Text:
				if i := bytes.IndexByte(b, 0); i >= 0 {
					b = b[:i]
				}
				v.Value = string(b)
			}
		} else {
			partial = true
		}
		off += w
		values = append(values, v)
	}
	return values, partial
}

// EncodeValues builds a payload from field values given as strings. Fields
// missing from set take their value from base, a full payload of l.
func (l *Layout) EncodeValues(set map[string]string, base []byte) ([]byte, error) {
	if len(base) != l.Size() {
		return nil, fmt.Errorf("record: %s: base is %d bytes, layout needs %d", l.Name, len(base), l.Size())
	}
	for name := range set {
		if _, ok := l.Offset(name); !ok {
			return nil, fmt.Errorf("record: %s: no field %q", l.Name, name)
		}
	}

	d := l.NewDecoder(base, base)
	e := l.NewEncoder()
	for _, f := range l.Fields {
		s, ok := set[f.Name]
		switch f.Kind {
		case Uint8, Uint16, Uint32:
			cur := uint64(0)
			switch f.Kind {
			case Uint8:
				cur = uint64(d.Uint8())
			case Uint16:
				cur = uint64(d.Uint16())
			case Uint32:
				cur = uint64(d.Uint32())
			}
			if ok {
				n, err := strconv.ParseUint(s, 0, f.Width()*8)
				if err != nil {
					return nil, fmt.Errorf("record: %s: field %s: %w", l.Name, f.Name, err)
				}
				cur = n
			}
			switch f.Kind {
			case Uint8:
				e.PutUint8(uint8(cur))
			case Uint16:
				e.PutUint16(uint16(cur))
			case Uint32:
				e.PutUint32(uint32(cur))
			}
		case Text:
			cur := d.Text()
			if ok {
				cur = s
			}
			e.PutText(cur)
		}
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return e.Bytes()
}
