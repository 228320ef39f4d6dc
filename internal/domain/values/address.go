package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address represents an opaque chain account identifier.
// Addresses are stored in canonical form (lowercase hex with 0x prefix)
// and compared by exact match only.
type Address struct {
	value string
}

const (
	addressPrefix    = "0x"
	addressHexLength = 40
)

// NewAddress creates an Address from its string form, canonicalizing case.
func NewAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(addressPrefix) || !strings.EqualFold(s[:len(addressPrefix)], addressPrefix) {
		return Address{}, fmt.Errorf("address must start with %s", addressPrefix)
	}

	hex := s[len(addressPrefix):]
	if len(hex) != addressHexLength {
		return Address{}, fmt.Errorf("address must have %d hex characters, got %d", addressHexLength, len(hex))
	}

	for _, ch := range hex {
		if !isHexDigit(ch) {
			return Address{}, fmt.Errorf("address contains non-hex character %q", ch)
		}
	}

	return Address{value: addressPrefix + strings.ToLower(hex)}, nil
}

// MustNewAddress creates an Address and panics on error (for constants/tests)
func MustNewAddress(s string) Address {
	a, err := NewAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the canonical string form
func (a Address) String() string {
	return a.value
}

// IsZero reports whether the address is the unset zero value (never valid)
func (a Address) IsZero() bool {
	return a.value == ""
}

// Equal checks exact-match equality of canonical forms
func (a Address) Equal(other Address) bool {
	return a.value == other.value
}

// Short returns an abbreviated form for logs (e.g. "0x1234…cdef")
func (a Address) Short() string {
	if len(a.value) < 12 {
		return a.value
	}
	return a.value[:6] + "…" + a.value[len(a.value)-4:]
}

// JSON marshaling
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value)
}

// JSON unmarshaling
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	addr, err := NewAddress(s)
	if err != nil {
		return err
	}

	*a = addr
	return nil
}

// Database scanning (implements sql.Scanner)
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return a.scanFromString(string(v))
	case string:
		return a.scanFromString(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}

// Database value (implements driver.Valuer)
func (a Address) Value() (driver.Value, error) {
	if a.value == "" {
		return nil, nil
	}
	return a.value, nil
}

func (a *Address) scanFromString(s string) error {
	addr, err := NewAddress(s)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}
	*a = addr
	return nil
}

func isHexDigit(ch rune) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return true
	case ch >= 'a' && ch <= 'f':
		return true
	case ch >= 'A' && ch <= 'F':
		return true
	}
	return false
}
