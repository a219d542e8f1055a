package fastbody

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	xcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// TextConverted consumes the body and returns it as a utf-8 string,
// converting from the charset the body declares.
//
// The charset is taken from the Content-Type header when present,
// otherwise the leading bytes are scanned for html meta tags and xml
// declarations the way browsers do. Bodies without any declaration are
// assumed utf-8.
//
// TextConverted requires a Transcoder set via WithTranscoder and fails
// with ErrNoTranscoder before consuming the body when it is missing.
func (b *Body) TextConverted() (string, error) {
	if b.transcoder == nil {
		return "", ErrNoTranscoder
	}
	body, err := b.consume()
	if err != nil {
		return "", err
	}
	converted, err := b.transcoder.Transcode(body, sniffCharset(body, b.ContentType()))
	if err != nil {
		return "", &SystemError{URL: b.url, Err: err}
	}
	return string(converted), nil
}

// maxCharsetSniffLength limits how many leading body bytes are scanned
// for charset declarations.
const maxCharsetSniffLength = 1024

var (
	charsetParamRe     = regexp.MustCompile(`(?i)charset=([^;]*)`)
	html5CharsetRe     = regexp.MustCompile(`(?i)<meta.+?charset=["']([^"'>]+)["']`)
	html4CharsetRe     = regexp.MustCompile(`(?i)<meta\s+?http-equiv=["']content-type["']\s+?content=["']([^"']+)["']`)
	html4CharsetSwapRe = regexp.MustCompile(`(?i)<meta\s+?content=["']([^"']+)["']\s+?http-equiv=["']content-type["']`)
	xmlEncodingRe      = regexp.MustCompile(`(?i)<\?xml.+?encoding=["']([^"'>]+)["']`)
)

// sniffCharset returns the lowercased charset label of content.
//
// The charset parameter of contentType takes precedence. Otherwise the
// first 1024 bytes are scanned for an html5 meta charset, an html4
// http-equiv content-type in either attribute order, and an xml
// declaration, in that order. The historic gb2312 and gbk labels are
// widened to gb18030 since pages declaring them regularly use bytes
// outside those sets.
func sniffCharset(content, contentType []byte) string {
	var res []byte

	if len(contentType) > 0 {
		if m := charsetParamRe.FindSubmatch(contentType); m != nil {
			res = m[1]
		}
	}

	if res == nil {
		head := content
		if len(head) > maxCharsetSniffLength {
			head = head[:maxCharsetSniffLength]
		}
		res = sniffHead(head)
	}

	if res == nil {
		return "utf-8"
	}

	charset := strings.ToLower(string(bytes.Trim(res, " \t\"'")))
	if charset == "gb2312" || charset == "gbk" {
		charset = "gb18030"
	}
	return charset
}

func sniffHead(head []byte) []byte {
	if m := html5CharsetRe.FindSubmatch(head); m != nil {
		return m[1]
	}
	if m := html4CharsetRe.FindSubmatch(head); m != nil {
		if mm := charsetParamRe.FindSubmatch(m[1]); mm != nil {
			return mm[1]
		}
	} else if m := html4CharsetSwapRe.FindSubmatch(head); m != nil {
		if mm := charsetParamRe.FindSubmatch(m[1]); mm != nil {
			return mm[1]
		}
	}
	if m := xmlEncodingRe.FindSubmatch(head); m != nil {
		return m[1]
	}
	return nil
}

// CharsetTranscoder converts legacy charsets to utf-8 using the
// encoding tables shipped with golang.org/x/net and golang.org/x/text.
//
// The zero value is ready for use and may be shared between bodies.
type CharsetTranscoder struct{}

var _ Transcoder = CharsetTranscoder{}

// Transcode converts b from fromCharset to utf-8.
//
// Empty, utf-8 and utf8 labels return b unchanged without copying.
// Unknown labels fail.
func (CharsetTranscoder) Transcode(b []byte, fromCharset string) ([]byte, error) {
	switch fromCharset {
	case "", "utf-8", "utf8":
		return b, nil
	}
	enc, _ := xcharset.Lookup(fromCharset)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", fromCharset)
	}
	converted, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return nil, fmt.Errorf("cannot convert charset %q to utf-8: %w", fromCharset, err)
	}
	return converted, nil
}
