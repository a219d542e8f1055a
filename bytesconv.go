package fastbody

import "unsafe"

// b2s converts a byte slice to a string without memory allocation.
//
// The returned string shares memory with b, so b must not be modified
// while the string is alive.
func b2s(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// s2b converts a string to a byte slice without memory allocation.
//
// The returned slice must not be modified.
func s2b(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func hexCharUpper(c byte) byte {
	if c < 10 {
		return '0' + c
	}
	return c - 10 + 'A'
}

func lowercaseBytes(b []byte) {
	for i, n := 0, len(b); i < n; i++ {
		p := &b[i]
		if *p >= 'A' && *p <= 'Z' {
			*p += 'a' - 'A'
		}
	}
}

var hex2intTable = func() [256]byte {
	var b [256]byte
	for i := 0; i < 256; i++ {
		c := byte(0)
		if i >= '0' && i <= '9' {
			c = 1 + byte(i) - '0'
		} else if i >= 'a' && i <= 'f' {
			c = 1 + byte(i) - 'a' + 10
		} else if i >= 'A' && i <= 'F' {
			c = 1 + byte(i) - 'A' + 10
		}
		b[i] = c
	}
	return b
}()

func hexbyte2int(c byte) int {
	return int(hex2intTable[c]) - 1
}

// appendQuotedArg appends the form-urlencoded v to dst and returns the
// extended dst. Space is encoded as '+', the unreserved characters of
// the urlencoded form alphabet are left as-is.
func appendQuotedArg(dst, v []byte) []byte {
	for _, c := range v {
		switch {
		case c == ' ':
			dst = append(dst, '+')
		case c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
			c == '*' || c == '-' || c == '.' || c == '_':
			dst = append(dst, c)
		default:
			dst = append(dst, '%', hexCharUpper(c>>4), hexCharUpper(c&15))
		}
	}
	return dst
}
