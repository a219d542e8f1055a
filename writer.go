package fastbody

import (
	"fmt"
	"io"
	"sync"
)

// WriteTo writes the body bytes to w.
//
// WriteTo implements io.WriterTo interface.
//
// Unlike the consuming operations, WriteTo does not mark the body as
// used. Writing a stream-backed body still drains the underlying
// stream, so a later consumption observes an empty remainder. w is not
// closed.
func (b *Body) WriteTo(w io.Writer) (int64, error) {
	if err := b.abortErr(); err != nil {
		return 0, err
	}
	switch b.src.kind {
	case sourceNone:
		return 0, nil
	case sourceTextBytes, sourceQueryBytes, sourceRawBytes:
		n, err := w.Write(b.src.mem)
		return int64(n), err
	case sourceBlob:
		return copyZeroAlloc(w, b.src.blob.NewReader())
	case sourceForm:
		return copyZeroAlloc(w, b.src.form)
	case sourceStream:
		return copyZeroAlloc(w, b.src.stream)
	}
	panic(fmt.Sprintf("BUG: unknown body source kind %d", b.src.kind))
}

var copyBufPool = sync.Pool{
	New: func() any {
		return make([]byte, 4096)
	},
}

func copyZeroAlloc(w io.Writer, r io.Reader) (int64, error) {
	if wt, ok := r.(io.WriterTo); ok {
		return wt.WriteTo(w)
	}
	if rf, ok := w.(io.ReaderFrom); ok {
		return rf.ReadFrom(r)
	}
	vbuf := copyBufPool.Get()
	buf := vbuf.([]byte)
	n, err := io.CopyBuffer(w, r, buf)
	copyBufPool.Put(vbuf)
	return n, err
}

type byteSliceReader struct {
	b []byte
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}

type byteSliceWriter struct {
	b []byte
}

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
