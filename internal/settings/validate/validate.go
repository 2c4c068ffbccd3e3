// Package validate range-checks the scalar fields of stored settings.
//
// Every function returns the canonical value together with a changed flag.
// The flag tells the caller that the stored representation differs from the
// value now held in memory, so the record should be rewritten.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IntRule is an inclusive integer range with a default.
type IntRule struct {
	Min     int
	Max     int
	Default int
}

// FixedRule is an inclusive one-decimal fixed-point range with a default.
type FixedRule struct {
	Min     float64
	Max     float64
	Default float64
}

// Contains reports whether v lies within the rule's bounds.
func (r IntRule) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp limits v to the rule's bounds.
func (r IntRule) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Int validates an integer field.
//
// Absent or syntactically invalid input yields the default and reports
// changed. Otherwise the value is clamped and stored in canonical decimal
// form; changed is reported whenever the stored text differs from raw, so
// "+7" and "007" both become "7" and report changed.
//
// Note that clamping is to the nearest bound, so "999" on [0,15] becomes "15".
func Int(raw string, present bool, rule IntRule) (string, bool) {
	if !present || !IsInteger(raw) {
		return strconv.Itoa(rule.Default), true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Digits only but out of int range.
		if strings.HasPrefix(raw, "-") {
			return strconv.Itoa(rule.Min), true
		}
		return strconv.Itoa(rule.Max), true
	}
	out := strconv.Itoa(rule.Clamp(v))
	return out, out != raw
}

// InRange reports whether raw is an integer within the bounds of rule.
func InRange(raw string, rule IntRule) bool {
	if !IsInteger(raw) {
		return false
	}
	v, err := strconv.Atoi(raw)
	return err == nil && rule.Clamp(v) == v
}

// ParseInt validates raw and returns the clamped integer value.
func ParseInt(raw string, present bool, rule IntRule) (int, bool) {
	s, changed := Int(raw, present, rule)
	v, _ := strconv.Atoi(s)
	return v, changed
}

// Fixed validates a one-decimal fixed-point field. Like Int, changed is
// reported whenever the stored text differs from raw.
func Fixed(raw string, present bool, rule FixedRule) (string, bool) {
	if !present || !IsFixed(raw) {
		return formatFixed(rule.Default), true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return formatFixed(rule.Default), true
	}
	c := v
	if c < rule.Min {
		c = rule.Min
	}
	if c > rule.Max {
		c = rule.Max
	}
	out := formatFixed(c)
	return out, out != raw
}

func formatFixed(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// Text copies a free-text field verbatim, truncated to max bytes on a rune
// boundary. Changed is reported only when the field was absent.
func Text(raw string, present bool, max int) (string, bool) {
	if !present {
		return "", true
	}
	return Truncate(raw, max), false
}

// Truncate shortens s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Bool interprets a stored toggle. Empty and anything starting with '0' is
// false.
func Bool(s string) bool {
	return s != "" && s[0] != '0'
}

// FormatBool renders a toggle as "0" or "1".
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// IsInteger reports whether s is an optional leading sign followed by
// at least one digit.
func IsInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsFixed reports whether s is an optional leading sign, digits and at most
// one decimal point, with at least one digit.
func IsFixed(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}

// PadText renders s into a fixed-width null-padded field of size bytes.
// At most size-1 bytes of s are kept so the field stays terminated.
func PadText(s string, size int) []byte {
	out := make([]byte, size)
	copy(out, Truncate(s, size-1))
	return out
}

// TrimPad returns the text up to the first null byte.
func TrimPad(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
