package fastbody

import (
	"io"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// teeReader splits r into two readers yielding the same byte sequence.
//
// Reading is demand driven: whichever branch reads first pulls from r
// and queues the bytes for the other branch, so no goroutine is needed.
// The queue of the lagging branch is unbounded; a branch that is never
// read may end up buffering the whole stream.
func teeReader(r io.Reader) (io.Reader, io.Reader) {
	t := &teeSource{src: r}
	b1 := &teeBranch{t: t, buf: bytebufferpool.Get()}
	b2 := &teeBranch{t: t, buf: bytebufferpool.Get()}
	b1.peer = b2
	b2.peer = b1
	return b1, b2
}

type teeSource struct {
	mu  sync.Mutex
	src io.Reader

	// err is the sticky source error, io.EOF included. Once set, src is
	// never read again.
	err error
}

type teeBranch struct {
	t    *teeSource
	peer *teeBranch

	// buf queues bytes the peer has read from the source but this
	// branch hasn't consumed yet. off is the consumed prefix. buf is
	// returned to the pool once the source error is observed drained.
	buf *bytebufferpool.ByteBuffer
	off int
}

func (b *teeBranch) Read(p []byte) (int, error) {
	t := b.t
	t.mu.Lock()
	defer t.mu.Unlock()

	if b.buf != nil && b.off < len(b.buf.B) {
		n := copy(p, b.buf.B[b.off:])
		b.off += n
		if b.off == len(b.buf.B) {
			b.buf.Reset()
			b.off = 0
		}
		return n, nil
	}
	if t.err != nil {
		if b.buf != nil {
			bytebufferpool.Put(b.buf)
			b.buf = nil
		}
		return 0, t.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := t.src.Read(p)
	if n > 0 {
		b.peer.buf.Write(p[:n]) //nolint:errcheck
	}
	if err != nil {
		t.err = err
	}
	return n, err
}
