package fastbody

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Blob is a sized byte container with an associated media type.
//
// NewReader must return a fresh reader over the full contents on every
// call, so a blob-backed body can be sized and written without being
// consumed.
type Blob interface {
	Size() int64
	ContentType() string
	NewReader() io.Reader
}

// QueryArgs is a container of url-encoded query arguments.
//
// Args implements it, as does fasthttp.Args.
type QueryArgs interface {
	// QueryString returns the url-encoded representation of the args.
	QueryString() []byte
}

// FormStream is a streaming multipart form body source.
//
// Len returns the exact encoded size, or -1 when it cannot be known
// without encoding the form.
type FormStream interface {
	io.Reader
	Boundary() string
	Len() int64
}

// Header provides the message headers associated with a body.
//
// Only the fields the body consumption needs are exposed, so both
// request and response headers of any http implementation can back it.
type Header interface {
	// ContentType returns the Content-Type header value, which may be
	// empty.
	ContentType() []byte
}

// Transcoder converts text from a legacy character set to utf-8.
//
// CharsetTranscoder is the default implementation built on
// golang.org/x/net and golang.org/x/text.
type Transcoder interface {
	Transcode(b []byte, fromCharset string) ([]byte, error)
}

// Logger is used for logging body consumption events.
type Logger interface {
	// Printf must have the same semantics as log.Printf.
	Printf(format string, args ...any)
}

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceTextBytes
	sourceQueryBytes
	sourceRawBytes
	sourceBlob
	sourceForm
	sourceStream
)

// bodySource is the classified body payload. kind selects which of the
// remaining fields is set; classification happens once in New and never
// changes afterwards.
type bodySource struct {
	kind sourceKind

	mem    []byte
	blob   Blob
	form   FormStream
	stream io.Reader
}

type abortState struct {
	err error
}

// Body wraps a message payload and consumes it at most once.
//
// Use New for creating Body instances.
//
// It is forbidden copying Body instances. Use Clone instead.
//
// Consuming operations and Abort may be called from concurrently
// running goroutines; exactly one consumption settles with the payload,
// the rest fail with ErrBodyUsed. Clone and WriteTo MUST NOT be called
// concurrently with consuming operations.
type Body struct {
	src bodySource

	// url is attached to errors for diagnostics.
	url string

	maxBodySize int64
	timeout     time.Duration

	header     Header
	transcoder Transcoder
	logger     Logger

	used    atomic.Bool
	aborted atomic.Pointer[abortState]
}

// Option configures a Body created by New.
type Option func(*Body)

// WithMaxBodySize limits the body to n bytes.
//
// Consumption fails with a *BodyTooLargeError before more than n bytes
// are accepted. Zero or negative n means no limit.
func WithMaxBodySize(n int64) Option {
	return func(b *Body) {
		b.maxBodySize = n
	}
}

// WithBodyTimeout rejects consumption with a *BodyTimeoutError if the
// body cannot be read in full within d.
//
// On timeout the body is aborted, but the source reader is not closed.
// If the source never returns from a read, the goroutine draining it is
// abandoned. Zero or negative d means no timeout.
func WithBodyTimeout(d time.Duration) Option {
	return func(b *Body) {
		b.timeout = d
	}
}

// WithURL attaches a url to the body for error diagnostics.
func WithURL(url string) Option {
	return func(b *Body) {
		b.url = url
	}
}

// WithHeader associates message headers with the body. The header's
// Content-Type takes precedence over the type inferred from the source.
func WithHeader(h Header) Option {
	return func(b *Body) {
		b.header = h
	}
}

// WithTranscoder enables TextConverted with the given charset
// transcoder.
func WithTranscoder(tr Transcoder) Option {
	return func(b *Body) {
		b.transcoder = tr
	}
}

// WithLogger sets the logger for consumption events such as aborts.
// By default nothing is logged.
func WithLogger(l Logger) Option {
	return func(b *Body) {
		b.logger = l
	}
}

// New returns a Body over src.
//
// src is classified in the following precedence order:
//
//   - nil: absent body, all consuming operations yield empty results
//   - QueryArgs: bytes rendered from url-encoded arguments
//   - Blob: sized byte container, read on consumption
//   - *bytebufferpool.ByteBuffer, []byte: caller bytes taken by reference
//   - string: utf-8 text
//   - FormStream: streaming multipart form
//   - io.Reader: arbitrary byte stream, sized -1
//
// Any other value is rendered with fmt.Sprint and treated as text.
//
// Byte slices and byte buffers are not copied. The caller must not
// modify them until the body has been consumed.
func New(src any, opts ...Option) *Body {
	b := &Body{
		src: classifySource(src),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func classifySource(src any) bodySource {
	switch v := src.(type) {
	case nil:
		return bodySource{kind: sourceNone}
	case QueryArgs:
		// The rendered bytes are copied since QueryString results are
		// only valid until the args are modified.
		qs := v.QueryString()
		return bodySource{kind: sourceQueryBytes, mem: append([]byte(nil), qs...)}
	case Blob:
		return bodySource{kind: sourceBlob, blob: v}
	case *bytebufferpool.ByteBuffer:
		return bodySource{kind: sourceRawBytes, mem: v.B}
	case []byte:
		return bodySource{kind: sourceRawBytes, mem: v}
	case string:
		return bodySource{kind: sourceTextBytes, mem: s2b(v)}
	case FormStream:
		return bodySource{kind: sourceForm, form: v}
	case io.Reader:
		return bodySource{kind: sourceStream, stream: v}
	default:
		return bodySource{kind: sourceTextBytes, mem: s2b(fmt.Sprint(src))}
	}
}

// BodyUsed reports whether consumption of the body has begun.
func (b *Body) BodyUsed() bool {
	return b.used.Load()
}

// URL returns the diagnostic url set via WithURL.
func (b *Body) URL() string {
	return b.url
}

// Size returns the number of body bytes when it is known in advance.
//
// It returns 0 for an absent body and -1 when the size cannot be
// determined without consuming the body.
func (b *Body) Size() int64 {
	switch b.src.kind {
	case sourceNone:
		return 0
	case sourceTextBytes, sourceQueryBytes, sourceRawBytes:
		return int64(len(b.src.mem))
	case sourceBlob:
		return b.src.blob.Size()
	case sourceForm:
		return b.src.form.Len()
	case sourceStream:
		return -1
	}
	panic(fmt.Sprintf("BUG: unknown body source kind %d", b.src.kind))
}

// ContentType returns the media type of the body.
//
// A Content-Type carried by the header set via WithHeader takes
// precedence. Otherwise the type inferred from the body source is
// returned, which may be empty.
//
// The returned value must not be modified.
func (b *Body) ContentType() []byte {
	if b.header != nil {
		if ct := b.header.ContentType(); len(ct) > 0 {
			return ct
		}
	}
	return b.inferredContentType()
}

func (b *Body) inferredContentType() []byte {
	switch b.src.kind {
	case sourceTextBytes:
		return strContentTypeText
	case sourceQueryBytes:
		return strContentTypeForm
	case sourceBlob:
		if t := b.src.blob.ContentType(); len(t) > 0 {
			return s2b(t)
		}
	case sourceForm:
		boundary := b.src.form.Boundary()
		dst := make([]byte, 0, len(strContentTypeMultipart)+len(boundary))
		dst = append(dst, strContentTypeMultipart...)
		return append(dst, boundary...)
	}
	return nil
}

// Abort puts the body into a failed state.
//
// A consumption running concurrently stops at the next read and reports
// the given error; a later consumption attempt fails immediately. The
// first call wins, subsequent calls and calls on an already consumed
// body are no-ops.
//
// A nil err is recorded as ErrBodyAborted. Errors outside the
// cancellation class are wrapped into *SystemError.
//
// Abort may be called from any goroutine.
func (b *Body) Abort(err error) {
	if err == nil {
		err = ErrBodyAborted
	} else if !isAbortError(err) {
		err = &SystemError{URL: b.url, Err: err}
	}
	if b.aborted.CompareAndSwap(nil, &abortState{err: err}) && b.logger != nil {
		b.logger.Printf("fastbody: body for %q aborted: %s", b.url, err)
	}
}

// abortErr returns the recorded abort error, if any.
func (b *Body) abortErr() error {
	if s := b.aborted.Load(); s != nil {
		return s.err
	}
	return nil
}

// Clone returns a copy of the body that can be consumed independently.
//
// Cloning an already consumed body fails with ErrCloneAfterUse. When
// the body wraps a byte stream or a form stream, the stream is split
// into two branches buffering on demand, so the branch read later may
// hold the whole payload in memory.
//
// Clone must not be called concurrently with a consuming operation.
func (b *Body) Clone() (*Body, error) {
	if b.used.Load() {
		return nil, ErrCloneAfterUse
	}
	cb := &Body{
		src:         b.src,
		url:         b.url,
		maxBodySize: b.maxBodySize,
		timeout:     b.timeout,
		header:      b.header,
		transcoder:  b.transcoder,
		logger:      b.logger,
	}
	if s := b.aborted.Load(); s != nil {
		cb.aborted.Store(s)
	}
	switch b.src.kind {
	case sourceStream:
		r1, r2 := teeReader(b.src.stream)
		b.src.stream = r1
		cb.src.stream = r2
	case sourceForm:
		orig := b.src.form
		r1, r2 := teeReader(orig)
		b.src.form = &clonedForm{Reader: r1, src: orig}
		cb.src.form = &clonedForm{Reader: r2, src: orig}
	}
	return cb, nil
}

// clonedForm replaces the read side of a cloned form stream with a tee
// branch while keeping the original form metadata.
type clonedForm struct {
	io.Reader
	src FormStream
}

func (f *clonedForm) Boundary() string { return f.src.Boundary() }
func (f *clonedForm) Len() int64       { return f.src.Len() }
