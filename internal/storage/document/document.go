// Package document reads and writes the JSON text records of the settings
// store.
//
// Documents are flat objects of named values. Reading distinguishes a
// malformed document from a well-formed one that merely lacks a field, and
// returns the content hash of the raw bytes so callers can seed their change
// cache without a second pass.
package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrMalformed is returned for text that is not a JSON object.
var ErrMalformed = errors.New("document: malformed")

// Document is a parsed, read-only JSON object.
type Document struct {
	root gjson.Result
	raw  []byte
}

// Parse validates raw and returns the document.
func Parse(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrMalformed
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is %s", ErrMalformed, root.Type)
	}
	return &Document{root: root, raw: raw}, nil
}

// Lookup returns the value of key as text. Strings are returned unquoted;
// numbers and booleans as written. A null value counts as absent.
func (d *Document) Lookup(key string) (string, bool) {
	r := d.root.Get(escape(key))
	if !r.Exists() || r.Type == gjson.Null {
		return "", false
	}
	if r.Type == gjson.String {
		return r.Str, true
	}
	return r.Raw, true
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	var keys []string
	d.root.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	return keys
}

// Raw returns the bytes the document was parsed from.
func (d *Document) Raw() []byte {
	return d.raw
}

// Builder assembles a document with keys in insertion order.
type Builder struct {
	raw []byte
	err error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{raw: []byte("{}")}
}

// Set stores value as a JSON string under key. Setting an existing key
// replaces its value in place.
func (b *Builder) Set(key, value string) *Builder {
	if b.err != nil {
		return b
	}
	raw, err := sjson.SetBytes(b.raw, escape(key), value)
	if err != nil {
		b.err = fmt.Errorf("document: set %s: %w", key, err)
		return b
	}
	b.raw = raw
	return b
}

// Bytes returns the serialized document.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.raw, nil
}

// escape quotes gjson/sjson path metacharacters in a literal key.
func escape(key string) string {
	if !strings.ContainsAny(key, `.*?|#@\!=<>%`) {
		return key
	}
	var sb strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`.*?|#@\!=<>%`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
