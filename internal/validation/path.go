package validation

import "errors"

var (
	ErrNoLeadingSlash = errors.New("path must start with /")
	ErrWhitespace     = errors.New("unescaped whitespace")
	ErrBadEscape      = errors.New("malformed percent escape")
)

// ValidPath reports whether p is an absolute URL path with an optional query.
func ValidPath(p string) bool { return CheckPath(p) == nil }

// CheckPath accepts an absolute path built from RFC 3986 pchar characters, '/' and
// %HH escapes, optionally followed by a '?' query. A fragment never appears in a
// request target, so '#' is rejected.
func CheckPath(p string) error {
	if p == "" {
		return ErrEmpty
	}
	if p[0] != '/' {
		return failAt(ErrNoLeadingSlash, 0)
	}

	for i := 1; i < len(p); i++ {
		c := p[i]
		switch {
		case isPathChar(c):
		case c == '%':
			if i+2 >= len(p) || !isHex(p[i+1]) || !isHex(p[i+2]) {
				return failAt(ErrBadEscape, i)
			}
			i += 2
		case c == '?':
			// query separator, and legal inside the query itself
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			return failAt(ErrWhitespace, i)
		default:
			return failAt(ErrBadCharacter, i)
		}
	}
	return nil
}

// isPathChar reports whether c is an unreserved, sub-delim, ':', '@' or '/' byte.
func isPathChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@', '/':
		return true
	}
	return false
}
