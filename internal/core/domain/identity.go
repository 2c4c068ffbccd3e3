package domain

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DeviceIdentity is the device's remote-pairing ID. Zero is never valid.
type DeviceIdentity uint32

// String renders the identity as eight hex digits.
func (id DeviceIdentity) String() string {
	return fmt.Sprintf("%08x", uint32(id))
}

// Valid reports whether the identity is usable.
func (id DeviceIdentity) Valid() bool {
	return id != 0
}

// NewDeviceIdentity draws a non-zero identity from r.
// A nil reader uses crypto/rand.
func NewDeviceIdentity(r io.Reader) (DeviceIdentity, error) {
	if r == nil {
		r = rand.Reader
	}
	var buf [4]byte
	for i := 0; i < 8; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("identity: read random: %w", err)
		}
		if id := DeviceIdentity(binary.LittleEndian.Uint32(buf[:])); id.Valid() {
			return id, nil
		}
	}
	return 0, fmt.Errorf("identity: random source returned only zeros")
}

// LearnedKeyCount is the number of keys in a complete table.
const LearnedKeyCount = 17

var learnedKeyNames = [LearnedKeyCount]string{
	"key0", "key1", "key2", "key3", "key4",
	"key5", "key6", "key7", "key8", "key9",
	"keySTAR", "keyHASH",
	"keyUP", "keyDOWN", "keyLEFT", "keyRIGHT", "keyOK",
}

// LearnedKeyNames returns the key names in stored order.
func LearnedKeyNames() []string {
	return learnedKeyNames[:]
}

// LearnedKeyTable maps remote-control key names to learned IR codes,
// indexed in LearnedKeyNames order.
type LearnedKeyTable [LearnedKeyCount]uint32

// Complete reports whether every key has a non-zero code.
func (t LearnedKeyTable) Complete() bool {
	for _, c := range t {
		if c == 0 {
			return false
		}
	}
	return true
}

// Code returns the code for name.
func (t LearnedKeyTable) Code(name string) (uint32, bool) {
	for i, n := range learnedKeyNames {
		if n == name {
			return t[i], true
		}
	}
	return 0, false
}

// Set stores the code for name.
func (t *LearnedKeyTable) Set(name string, code uint32) error {
	for i, n := range learnedKeyNames {
		if n == name {
			t[i] = code
			return nil
		}
	}
	return ErrUnknownField.WithDetails(name)
}

// FormatKeyCode renders a code the way it is stored.
func FormatKeyCode(code uint32) string {
	return fmt.Sprintf("0x%08x", code)
}

// ParseKeyCode parses a stored code, with or without 0x prefix.
// Unparseable input yields 0.
func ParseKeyCode(s string) uint32 {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
