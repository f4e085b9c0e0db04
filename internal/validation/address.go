// Package validation implements the lexical grammars for client addresses and URL paths.
//
// Every check is a single left-to-right scan over the input bytes. Each rejection is a
// distinct sentinel error so callers (and tests) can tell why a value failed.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty             = errors.New("empty value")
	ErrEmptyGroup        = errors.New("empty group")
	ErrGroupTooLong      = errors.New("group too long")
	ErrOutOfRange        = errors.New("group value out of range")
	ErrBadCharacter      = errors.New("invalid character")
	ErrGroupCount        = errors.New("wrong number of groups")
	ErrDoubleCompression = errors.New("more than one :: compression")
	ErrMalformedColons   = errors.New("malformed colon run")
)

const (
	v4Groups      = 4
	v4GroupDigits = 3
	v4GroupMax    = 255
	v6Groups      = 8
	v6GroupDigits = 4
)

// AddressMode selects which address grammar gates acceptance of a record.
type AddressMode int

const (
	AddressNone AddressMode = iota
	AddressV4
	AddressV6
	AddressEither
)

var addressModeNames = map[AddressMode]string{
	AddressNone:   "none",
	AddressV4:     "v4",
	AddressV6:     "v6",
	AddressEither: "either",
}

func (m AddressMode) String() string {
	if name, ok := addressModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("AddressMode(%d)", int(m))
}

// ParseAddressMode accepts none, v4, v6 or either (plus the ip4/ipv4/ip6/ipv6/both aliases).
func ParseAddressMode(s string) (AddressMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return AddressNone, nil
	case "v4", "ip4", "ipv4", "v4_only":
		return AddressV4, nil
	case "v6", "ip6", "ipv6", "v6_only":
		return AddressV6, nil
	case "either", "both", "any":
		return AddressEither, nil
	default:
		return AddressNone, fmt.Errorf("unknown address validation mode %q (want none, v4, v6 or either)", s)
	}
}

// ValidV4 reports whether s is a dotted-quad IPv4 address.
func ValidV4(s string) bool { return CheckV4(s) == nil }

// ValidV6 reports whether s is an IPv6 address, optionally using one :: compression.
func ValidV6(s string) bool { return CheckV6(s) == nil }

// CheckAddress validates s against the grammar selected by mode.
func CheckAddress(mode AddressMode, s string) error {
	switch mode {
	case AddressNone:
		return nil
	case AddressV4:
		return CheckV4(s)
	case AddressV6:
		return CheckV6(s)
	case AddressEither:
		v4err := CheckV4(s)
		if v4err == nil {
			return nil
		}
		v6err := CheckV6(s)
		if v6err == nil {
			return nil
		}
		// Report the failure of the grammar the input most resembles.
		if strings.Contains(s, ":") {
			return v6err
		}
		return v4err
	default:
		return fmt.Errorf("unknown address validation mode %d", int(mode))
	}
}

// CheckV4 validates four dot-separated groups of one to three decimal digits, each
// in [0,255]. Leading zeros are allowed.
func CheckV4(s string) error {
	if s == "" {
		return ErrEmpty
	}

	groups, digits, value := 0, 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
			if digits > v4GroupDigits {
				return failAt(ErrGroupTooLong, i)
			}
			value = value*10 + int(c-'0')
		case c == '.':
			if digits == 0 {
				return failAt(ErrEmptyGroup, i)
			}
			if value > v4GroupMax {
				return failAt(ErrOutOfRange, i-digits)
			}
			groups++
			if groups >= v4Groups {
				return failAt(ErrGroupCount, i)
			}
			digits, value = 0, 0
		default:
			return failAt(ErrBadCharacter, i)
		}
	}

	if digits == 0 {
		return failAt(ErrEmptyGroup, len(s))
	}
	if value > v4GroupMax {
		return failAt(ErrOutOfRange, len(s)-digits)
	}
	if groups+1 != v4Groups {
		return failAt(ErrGroupCount, len(s))
	}
	return nil
}

// CheckV6 validates eight colon-separated groups of one to four hex digits, or a
// shorter form in which a single :: stands for one or more all-zero groups.
func CheckV6(s string) error {
	if s == "" {
		return ErrEmpty
	}

	groups, digits := 0, 0
	compressed := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isHex(c):
			digits++
			if digits > v6GroupDigits {
				return failAt(ErrGroupTooLong, i)
			}
		case c == ':':
			if i+1 < len(s) && s[i+1] == ':' {
				if i+2 < len(s) && s[i+2] == ':' {
					return failAt(ErrMalformedColons, i)
				}
				if compressed {
					return failAt(ErrDoubleCompression, i)
				}
				compressed = true
				if digits > 0 {
					groups++
					digits = 0
				}
				i++
				continue
			}
			if digits == 0 {
				return failAt(ErrEmptyGroup, i)
			}
			groups++
			digits = 0
			if i == len(s)-1 {
				return failAt(ErrEmptyGroup, len(s))
			}
		default:
			return failAt(ErrBadCharacter, i)
		}
	}
	if digits > 0 {
		groups++
	}

	if compressed {
		// :: must stand for at least one group.
		if groups > v6Groups-1 {
			return failAt(ErrGroupCount, len(s))
		}
		return nil
	}
	if groups != v6Groups {
		return failAt(ErrGroupCount, len(s))
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func failAt(err error, offset int) error {
	return fmt.Errorf("%w at offset %d", err, offset)
}
