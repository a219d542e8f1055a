package fastbody

import (
	"bytes"
	"io"
)

// NewBlob returns an in-memory Blob holding b with the given content
// type.
//
// The bytes are not copied and must not be modified while the blob is
// in use.
func NewBlob(contentType string, b []byte) Blob {
	return &memBlob{
		contentType: contentType,
		b:           b,
	}
}

type memBlob struct {
	contentType string
	b           []byte
}

func (b *memBlob) Size() int64 {
	return int64(len(b.b))
}

func (b *memBlob) ContentType() string {
	return b.contentType
}

func (b *memBlob) NewReader() io.Reader {
	return bytes.NewReader(b.b)
}
