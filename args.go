package fastbody

import (
	"bytes"
	"io"
)

// Args represents url-encoded arguments for building
// application/x-www-form-urlencoded bodies.
//
// It is forbidden copying Args instances. Create new instances instead
// and use CopyTo().
//
// It is unsafe modifying/reading Args instance from concurrently
// running goroutines.
type Args struct {
	args  []argsKV
	bufKV argsKV
	buf   []byte
}

type argsKV struct {
	key   []byte
	value []byte
}

var _ QueryArgs = &Args{}

// Reset clears the args.
func (a *Args) Reset() {
	a.args = a.args[:0]
}

// CopyTo copies all args to dst.
func (a *Args) CopyTo(dst *Args) {
	dst.Reset()
	dst.args = copyArgs(dst.args, a.args)
}

// VisitAll calls f for each existing arg.
//
// f must not retain references to key and value after returning.
// Make key and/or value copies if you need storing them after returning.
func (a *Args) VisitAll(f func(key, value []byte)) {
	for i, n := 0, len(a.args); i < n; i++ {
		kv := &a.args[i]
		f(kv.key, kv.value)
	}
}

// Len returns the number of args.
func (a *Args) Len() int {
	return len(a.args)
}

// Parse parses the given string containing url-encoded args.
func (a *Args) Parse(s string) {
	a.buf = append(a.buf[:0], s...)
	a.ParseBytes(a.buf)
}

// ParseBytes parses the given b containing url-encoded args.
func (a *Args) ParseBytes(b []byte) {
	a.Reset()

	var s argsScanner
	s.b = b

	var kv *argsKV
	a.args, kv = allocArg(a.args)
	for s.next(kv) {
		if len(kv.key) > 0 || len(kv.value) > 0 {
			a.args, kv = allocArg(a.args)
		}
	}
	a.args = releaseArg(a.args)
}

// String returns string representation of the args.
func (a *Args) String() string {
	return string(a.QueryString())
}

// QueryString returns the url-encoded representation of the args.
//
// The returned value is valid until the next call to Args methods.
func (a *Args) QueryString() []byte {
	a.buf = a.AppendBytes(a.buf[:0])
	return a.buf
}

// AppendBytes appends the url-encoded args to dst and returns the
// extended dst.
func (a *Args) AppendBytes(dst []byte) []byte {
	for i, n := 0, len(a.args); i < n; i++ {
		kv := &a.args[i]
		dst = appendQuotedArg(dst, kv.key)
		dst = append(dst, '=')
		if len(kv.value) > 0 {
			dst = appendQuotedArg(dst, kv.value)
		}
		if i+1 < n {
			dst = append(dst, '&')
		}
	}
	return dst
}

// WriteTo writes the url-encoded args to w.
//
// WriteTo implements io.WriterTo interface.
func (a *Args) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.QueryString())
	return int64(n), err
}

// Add adds 'key=value' argument.
//
// Multiple values for the same key may be added.
func (a *Args) Add(key, value string) {
	a.args = appendArgStr(a.args, key, value)
}

// Set sets 'key=value' argument, replacing the previous value for the
// key.
func (a *Args) Set(key, value string) {
	a.bufKV.value = append(a.bufKV.value[:0], value...)
	a.bufKV.key = append(a.bufKV.key[:0], key...)
	a.args = setArg(a.args, a.bufKV.key, a.bufKV.value)
}

// Del deletes argument with the given key.
func (a *Args) Del(key string) {
	a.bufKV.key = append(a.bufKV.key[:0], key...)
	a.args = delArg(a.args, a.bufKV.key)
}

// Peek returns the value for the given key.
//
// The returned value is valid until the next Args call.
func (a *Args) Peek(key string) []byte {
	for i, n := 0, len(a.args); i < n; i++ {
		kv := &a.args[i]
		if string(kv.key) == key {
			return kv.value
		}
	}
	return nil
}

// Has returns true if the given key exists in Args.
func (a *Args) Has(key string) bool {
	for i, n := 0, len(a.args); i < n; i++ {
		kv := &a.args[i]
		if string(kv.key) == key {
			return true
		}
	}
	return false
}

func copyArgs(dst, src []argsKV) []argsKV {
	if cap(dst) < len(src) {
		tmp := make([]argsKV, len(src))
		copy(tmp, dst)
		dst = tmp
	}
	n := len(src)
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dstKV := &dst[i]
		srcKV := &src[i]
		dstKV.key = append(dstKV.key[:0], srcKV.key...)
		dstKV.value = append(dstKV.value[:0], srcKV.value...)
	}
	return dst
}

func delArg(args []argsKV, key []byte) []argsKV {
	for i, n := 0, len(args); i < n; i++ {
		kv := &args[i]
		if bytes.Equal(kv.key, key) {
			tmp := *kv
			copy(args[i:], args[i+1:])
			args[n-1] = tmp
			return args[:n-1]
		}
	}
	return args
}

func setArg(args []argsKV, key, value []byte) []argsKV {
	for i, n := 0, len(args); i < n; i++ {
		kv := &args[i]
		if bytes.Equal(kv.key, key) {
			kv.value = append(kv.value[:0], value...)
			return args
		}
	}
	var kv *argsKV
	args, kv = allocArg(args)
	kv.key = append(kv.key[:0], key...)
	kv.value = append(kv.value[:0], value...)
	return args
}

func appendArgStr(args []argsKV, key, value string) []argsKV {
	var kv *argsKV
	args, kv = allocArg(args)
	kv.key = append(kv.key[:0], key...)
	kv.value = append(kv.value[:0], value...)
	return args
}

func allocArg(h []argsKV) ([]argsKV, *argsKV) {
	n := len(h)
	if cap(h) > n {
		h = h[:n+1]
	} else {
		h = append(h, argsKV{})
	}
	return h, &h[n]
}

func releaseArg(h []argsKV) []argsKV {
	return h[:len(h)-1]
}

type argsScanner struct {
	b []byte
}

func (s *argsScanner) next(kv *argsKV) bool {
	if len(s.b) == 0 {
		return false
	}

	isKey := true
	k := 0
	for i, c := range s.b {
		switch c {
		case '=':
			if isKey {
				isKey = false
				kv.key = decodeArg(kv.key, s.b[:i])
				k = i + 1
			}
		case '&':
			if isKey {
				kv.key = decodeArg(kv.key, s.b[:i])
				kv.value = kv.value[:0]
			} else {
				kv.value = decodeArg(kv.value, s.b[k:i])
			}
			s.b = s.b[i+1:]
			return true
		}
	}

	if isKey {
		kv.key = decodeArg(kv.key, s.b)
		kv.value = kv.value[:0]
	} else {
		kv.value = decodeArg(kv.value, s.b[k:])
	}
	s.b = s.b[len(s.b):]
	return true
}

func decodeArg(dst, src []byte) []byte {
	dst = dst[:0]
	for i, n := 0, len(src); i < n; i++ {
		c := src[i]
		switch {
		case c == '%':
			if i+2 >= n {
				return append(dst, src[i:]...)
			}
			x1 := hexbyte2int(src[i+1])
			x2 := hexbyte2int(src[i+2])
			if x1 < 0 || x2 < 0 {
				dst = append(dst, c)
			} else {
				dst = append(dst, byte(x1<<4|x2))
				i += 2
			}
		case c == '+':
			dst = append(dst, ' ')
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
