// Package ident holds identifier and normalization helpers shared by the
// storage layer and the auth service.
package ident

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a collision-resistant identifier for entities created
// outside the remote store (which mints its own document IDs).
func NewID() string {
	return uuid.NewString()
}

// Normalize canonicalizes an ID of any native type to its string form.
// The remote store uses string document IDs while imported or legacy
// records may carry numeric ones.
func Normalize(id any) string {
	switch v := id.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers decode as float64; legacy IDs were small ints.
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// NormalizePhone strips everything but digits. Phone equality and
// login identity are defined over this form.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone accepts Brazilian numbers with or without the leading
// area digit (10 or 11 digits after normalization).
func ValidPhone(phone string) bool {
	n := len(NormalizePhone(phone))
	return n == 10 || n == 11
}

// DefaultPassword derives the fallback client password from the last
// six digits of the phone number.
func DefaultPassword(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) > 6 {
		digits = digits[len(digits)-6:]
	}
	if digits == "" {
		return "000000"
	}
	return digits
}

// StringSlice coerces a decoded JSON value into a string slice.
// Ingredient lists arrive either as arrays or as a single
// comma-separated string depending on which client wrote the record.
func StringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
