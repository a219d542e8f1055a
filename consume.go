package fastbody

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sync"
)

// Bytes consumes the body and returns its bytes.
//
// The returned slice aliases the body source for in-memory sources and
// must not be modified.
func (b *Body) Bytes() ([]byte, error) {
	return b.consume()
}

// BytesReader consumes the body and returns a reader over its bytes.
func (b *Body) BytesReader() (*bytes.Reader, error) {
	body, err := b.consume()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(body), nil
}

// Text consumes the body and returns it as a string.
//
// The bytes are returned as-is, assuming utf-8. Use TextConverted for
// bodies in legacy charsets.
func (b *Body) Text() (string, error) {
	body, err := b.consume()
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// JSON consumes the body and unmarshals it into v.
//
// Unparsable bodies are reported as *InvalidJSONError.
func (b *Body) JSON(v any) error {
	body, err := b.consume()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &InvalidJSONError{URL: b.url, Err: err}
	}
	return nil
}

// Blob consumes the body and returns it as an in-memory Blob typed
// with the lower-cased ContentType.
func (b *Body) Blob() (Blob, error) {
	ct := append([]byte(nil), b.ContentType()...)
	lowercaseBytes(ct)
	body, err := b.consume()
	if err != nil {
		return nil, err
	}
	return NewBlob(b2s(ct), body), nil
}

// consume accumulates the body bytes exactly once.
//
// The first call flips the used flag regardless of the outcome, so a
// second call always fails with ErrBodyUsed. The abort state is checked
// after the flip: aborting wins over consuming.
func (b *Body) consume() ([]byte, error) {
	if !b.used.CompareAndSwap(false, true) {
		return nil, b.usedError()
	}
	if err := b.abortErr(); err != nil {
		return nil, err
	}

	switch b.src.kind {
	case sourceNone:
		return nil, nil
	case sourceTextBytes, sourceQueryBytes, sourceRawBytes:
		if b.maxBodySize > 0 && int64(len(b.src.mem)) > b.maxBodySize {
			return nil, &BodyTooLargeError{MaxSize: b.maxBodySize}
		}
		return b.src.mem, nil
	case sourceBlob:
		size := b.src.blob.Size()
		if b.maxBodySize > 0 && size > b.maxBodySize {
			return nil, &BodyTooLargeError{MaxSize: b.maxBodySize}
		}
		return b.readAll(b.src.blob.NewReader(), size)
	case sourceForm:
		size := b.src.form.Len()
		if b.maxBodySize > 0 && size > b.maxBodySize {
			return nil, &BodyTooLargeError{MaxSize: b.maxBodySize}
		}
		body, err := b.readAll(b.src.form, size)
		// The form encoder may hold open files and a pipe goroutine.
		// Closing releases both when consumption ended early.
		if c, ok := b.src.form.(io.Closer); ok {
			_ = c.Close()
		}
		return body, err
	case sourceStream:
		return b.readAll(b.src.stream, -1)
	}
	panic(fmt.Sprintf("BUG: unknown body source kind %d", b.src.kind))
}

func (b *Body) usedError() error {
	if b.url == "" {
		return ErrBodyUsed
	}
	return fmt.Errorf("%w: %s", ErrBodyUsed, b.url)
}

type bodyReadResult struct {
	body []byte
	err  error
}

var readResultChPool sync.Pool

// readAll drains r, enforcing the configured timeout.
//
// The timeout path reads on a separate goroutine and selects on a
// pooled timer. On timeout the body is aborted so the reader goroutine
// stops at its next iteration, and the result channel is dropped
// instead of being returned to the pool since the goroutine still owns
// a send on it.
func (b *Body) readAll(r io.Reader, sizeHint int64) ([]byte, error) {
	if b.timeout <= 0 {
		return b.appendAll(r, sizeHint)
	}

	chv := readResultChPool.Get()
	if chv == nil {
		chv = make(chan bodyReadResult, 1)
	}
	ch := chv.(chan bodyReadResult)

	go func() {
		body, err := b.appendAll(r, sizeHint)
		ch <- bodyReadResult{body: body, err: err}
	}()

	tc := acquireTimer(b.timeout)
	var (
		body []byte
		err  error
	)
	select {
	case res := <-ch:
		body, err = res.body, res.err
		readResultChPool.Put(chv)
	case <-tc.C:
		errTimeout := &BodyTimeoutError{Timeout: b.timeout, URL: b.url}
		b.Abort(errTimeout)
		err = errTimeout
	}
	releaseTimer(tc)

	return body, err
}

// appendAll reads r to the end into a buffer grown the same way
// response bodies are accumulated: doubling capacities rounded up to
// powers of two, capped one byte above the size limit so an oversized
// body is detected without buffering past the limit.
func (b *Body) appendAll(r io.Reader, sizeHint int64) ([]byte, error) {
	dst := make([]byte, initialReadBufferSize(sizeHint, b.maxBodySize))
	offset := 0
	for {
		if err := b.abortErr(); err != nil {
			return nil, err
		}
		nn, err := r.Read(dst[offset:])
		if nn < 0 {
			panic(fmt.Sprintf("BUG: negative Read count %d", nn))
		}
		if b.maxBodySize > 0 && int64(offset)+int64(nn) > b.maxBodySize {
			return nil, &BodyTooLargeError{MaxSize: b.maxBodySize}
		}
		offset += nn
		if err != nil {
			if err == io.EOF {
				return dst[:offset], nil
			}
			if isAbortError(err) {
				return nil, err
			}
			return nil, &SystemError{URL: b.url, Err: err}
		}
		if len(dst) == offset {
			n := roundUpForSliceCap(2 * offset)
			if b.maxBodySize > 0 && int64(n) > b.maxBodySize {
				n = int(b.maxBodySize) + 1
			}
			grown := make([]byte, n)
			copy(grown, dst)
			dst = grown
		}
	}
}

// initialReadBufferSize sizes the first read buffer. A known body size
// is trusted plus one byte so end of stream is reached without growth.
// Hints beyond the int32 range are treated as unknown.
func initialReadBufferSize(sizeHint, maxBodySize int64) int {
	n := int64(1024)
	if sizeHint >= 0 && sizeHint < math.MaxInt32 {
		n = sizeHint + 1
	}
	if maxBodySize > 0 && n > maxBodySize {
		n = maxBodySize + 1
	}
	return int(n)
}
