package fastbody

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSniffCharset(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name        string
		content     string
		contentType string
		expected    string
	}{
		{
			name:     "no declaration",
			content:  "plain text",
			expected: "utf-8",
		},
		{
			name:        "header param",
			content:     "text",
			contentType: "text/html; charset=ISO-8859-1",
			expected:    "iso-8859-1",
		},
		{
			name:        "header param quoted",
			content:     "text",
			contentType: `text/html; charset="utf-8"`,
			expected:    "utf-8",
		},
		{
			name:        "header wins over meta",
			content:     `<meta charset="koi8-r">`,
			contentType: "text/html; charset=iso-8859-1",
			expected:    "iso-8859-1",
		},
		{
			name:     "html5 meta",
			content:  `<html><head><meta charset="shift_jis"></head><body></body></html>`,
			expected: "shift_jis",
		},
		{
			name:     "html5 meta single quotes",
			content:  `<meta charset='EUC-JP'>`,
			expected: "euc-jp",
		},
		{
			name:     "html4 meta",
			content:  `<meta http-equiv="content-type" content="text/html; charset=iso-8859-1">`,
			expected: "iso-8859-1",
		},
		{
			name:     "html4 meta swapped attributes",
			content:  `<meta content="text/html; charset=iso-8859-5" http-equiv="content-type">`,
			expected: "iso-8859-5",
		},
		{
			name:     "xml declaration",
			content:  `<?xml version="1.0" encoding="EUC-JP"?><data/>`,
			expected: "euc-jp",
		},
		{
			name:     "gb2312 widened",
			content:  `<meta charset="gb2312">`,
			expected: "gb18030",
		},
		{
			name:        "gbk widened",
			content:     "text",
			contentType: "text/html; charset=GBK",
			expected:    "gb18030",
		},
		{
			name:     "meta beyond sniff window ignored",
			content:  strings.Repeat(" ", 2000) + `<meta charset="iso-8859-1">`,
			expected: "utf-8",
		},
	}

	for _, tc := range testcases {
		got := sniffCharset([]byte(tc.content), []byte(tc.contentType))
		if got != tc.expected {
			t.Fatalf("%s: unexpected charset %q. Expecting %q", tc.name, got, tc.expected)
		}
	}
}

func TestCharsetTranscoder(t *testing.T) {
	t.Parallel()

	var tr CharsetTranscoder

	// utf-8 passes through unchanged.
	out, err := tr.Transcode([]byte("already utf-8"), "utf-8")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "already utf-8" {
		t.Fatalf("unexpected output %q", out)
	}

	// latin-1 high bytes become multibyte runes.
	out, err = tr.Transcode([]byte{'c', 'a', 'f', 0xe9}, "iso-8859-1")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "café" {
		t.Fatalf("unexpected output %q. Expecting café", out)
	}

	// gb18030 decodes cjk.
	out, err = tr.Transcode([]byte{0xd6, 0xd0}, "gb18030")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(out) != "中" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err = tr.Transcode([]byte("data"), "no-such-charset"); err == nil {
		t.Fatalf("expecting error for unknown charset")
	}
}

func TestTextConvertedHeaderCharset(t *testing.T) {
	t.Parallel()

	body := []byte{'r', 0xe9, 's', 'u', 'm', 0xe9}
	b := New(body,
		WithHeader(&testHeader{contentType: "text/plain; charset=iso-8859-1"}),
		WithTranscoder(CharsetTranscoder{}))
	s, err := b.TextConverted()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s != "résumé" {
		t.Fatalf("unexpected text %q. Expecting résumé", s)
	}
}

func TestTextConvertedMetaCharset(t *testing.T) {
	t.Parallel()

	var page bytes.Buffer
	page.WriteString(`<html><head><meta charset="iso-8859-1"></head><body>caf`)
	page.WriteByte(0xe9)
	page.WriteString("</body></html>")

	b := New(page.Bytes(), WithTranscoder(CharsetTranscoder{}))
	s, err := b.TextConverted()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(s, "café") {
		t.Fatalf("converted page %q must contain café", s)
	}
}

func TestTextConvertedDefaultUTF8(t *testing.T) {
	t.Parallel()

	b := New("no declarations here", WithTranscoder(CharsetTranscoder{}))
	s, err := b.TextConverted()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s != "no declarations here" {
		t.Fatalf("unexpected text %q", s)
	}
}

func TestTextConvertedNoTranscoder(t *testing.T) {
	t.Parallel()

	b := New("payload")
	_, err := b.TextConverted()
	if !errors.Is(err, ErrNoTranscoder) {
		t.Fatalf("unexpected error: %s. Expecting ErrNoTranscoder", err)
	}

	// The missing capability is detected before consumption starts.
	if b.BodyUsed() {
		t.Fatalf("body must not be consumed when the transcoder is missing")
	}
	if s, err := b.Text(); err != nil || s != "payload" {
		t.Fatalf("body must still be consumable, got %q, %v", s, err)
	}
}
