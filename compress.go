package fastbody

import (
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
)

// Gunzip consumes the body and returns it un-gzipped.
//
// Use it when the message came with 'Content-Encoding: gzip'.
func (b *Body) Gunzip() ([]byte, error) {
	body, err := b.consume()
	if err != nil {
		return nil, err
	}
	return gunzipData(body)
}

// Inflate consumes the body and returns it inflated.
//
// Use it when the message came with 'Content-Encoding: deflate'. Both
// zlib-wrapped and raw deflate payloads are handled, since servers
// exist that send deflate data without the zlib header.
func (b *Body) Inflate() ([]byte, error) {
	body, err := b.consume()
	if err != nil {
		return nil, err
	}
	return inflateData(body)
}

// Unbrotli consumes the body and returns it un-brotlied.
//
// Use it when the message came with 'Content-Encoding: br'.
func (b *Body) Unbrotli() ([]byte, error) {
	body, err := b.consume()
	if err != nil {
		return nil, err
	}
	return unbrotliData(body)
}

// Unzstd consumes the body and returns it un-zstded.
//
// Use it when the message came with 'Content-Encoding: zstd'.
func (b *Body) Unzstd() ([]byte, error) {
	body, err := b.consume()
	if err != nil {
		return nil, err
	}
	return unzstdData(body)
}

// Uncompressed consumes the body and decodes it according to the given
// 'Content-Encoding' header value.
//
// An empty contentEncoding returns the body as-is. Unsupported values
// fail with ErrContentEncodingUnsupported before the body is consumed.
func (b *Body) Uncompressed(contentEncoding []byte) ([]byte, error) {
	switch b2s(contentEncoding) {
	case "":
		return b.Bytes()
	case "deflate":
		return b.Inflate()
	case "gzip":
		return b.Gunzip()
	case "br":
		return b.Unbrotli()
	case "zstd":
		return b.Unzstd()
	}
	return nil, ErrContentEncodingUnsupported
}

func gunzipData(p []byte) ([]byte, error) {
	var bb bytebufferpool.ByteBuffer
	if _, err := WriteGunzip(&bb, p); err != nil {
		return nil, err
	}
	return bb.B, nil
}

func inflateData(p []byte) ([]byte, error) {
	var bb bytebufferpool.ByteBuffer
	if _, err := WriteInflate(&bb, p); err != nil {
		return nil, err
	}
	return bb.B, nil
}

func unbrotliData(p []byte) ([]byte, error) {
	var bb bytebufferpool.ByteBuffer
	if _, err := WriteUnbrotli(&bb, p); err != nil {
		return nil, err
	}
	return bb.B, nil
}

func unzstdData(p []byte) ([]byte, error) {
	var bb bytebufferpool.ByteBuffer
	if _, err := WriteUnzstd(&bb, p); err != nil {
		return nil, err
	}
	return bb.B, nil
}

var (
	gzipReaderPool     sync.Pool
	zlibReaderPool     sync.Pool
	rawDeflateReadPool sync.Pool
	brotliReaderPool   sync.Pool
	zstdDecoderPool    sync.Pool
)

func acquireGzipReader(r io.Reader) (*gzip.Reader, error) {
	v := gzipReaderPool.Get()
	if v == nil {
		return gzip.NewReader(r)
	}
	zr := v.(*gzip.Reader)
	if err := zr.Reset(r); err != nil {
		return nil, err
	}
	return zr, nil
}

func releaseGzipReader(zr *gzip.Reader) {
	zr.Close()
	gzipReaderPool.Put(zr)
}

func acquireZlibReader(r io.Reader) (io.ReadCloser, error) {
	v := zlibReaderPool.Get()
	if v == nil {
		return zlib.NewReader(r)
	}
	zr := v.(io.ReadCloser)
	if err := zr.(zlib.Resetter).Reset(r, nil); err != nil {
		return nil, err
	}
	return zr, nil
}

func releaseZlibReader(zr io.ReadCloser) {
	zr.Close()
	zlibReaderPool.Put(zr)
}

func acquireRawDeflateReader(r io.Reader) (io.ReadCloser, error) {
	v := rawDeflateReadPool.Get()
	if v == nil {
		return flate.NewReader(r), nil
	}
	zr := v.(io.ReadCloser)
	if err := zr.(flate.Resetter).Reset(r, nil); err != nil {
		return nil, err
	}
	return zr, nil
}

func releaseRawDeflateReader(zr io.ReadCloser) {
	zr.Close()
	rawDeflateReadPool.Put(zr)
}

func acquireBrotliReader(r io.Reader) (*brotli.Reader, error) {
	v := brotliReaderPool.Get()
	if v == nil {
		return brotli.NewReader(r), nil
	}
	zr := v.(*brotli.Reader)
	if err := zr.Reset(r); err != nil {
		return nil, err
	}
	return zr, nil
}

func releaseBrotliReader(zr *brotli.Reader) {
	brotliReaderPool.Put(zr)
}

func acquireZstdReader(r io.Reader) (*zstd.Decoder, error) {
	v := zstdDecoderPool.Get()
	if v == nil {
		return zstd.NewReader(r)
	}
	zr := v.(*zstd.Decoder)
	if err := zr.Reset(r); err != nil {
		return nil, err
	}
	return zr, nil
}

func releaseZstdReader(zr *zstd.Decoder) {
	zstdDecoderPool.Put(zr)
}

// WriteGunzip writes un-gzipped p to w and returns the number of
// uncompressed bytes written to w.
func WriteGunzip(w io.Writer, p []byte) (int, error) {
	r := &byteSliceReader{b: p}
	zr, err := acquireGzipReader(r)
	if err != nil {
		return 0, err
	}
	n, err := copyZeroAlloc(w, zr)
	releaseGzipReader(zr)
	nn := int(n)
	if int64(nn) != n {
		return 0, fmt.Errorf("too much data gunzipped: %d", n)
	}
	return nn, err
}

// AppendGunzipBytes appends un-gzipped src to dst and returns the
// resulting dst.
func AppendGunzipBytes(dst, src []byte) ([]byte, error) {
	w := &byteSliceWriter{b: dst}
	_, err := WriteGunzip(w, src)
	return w.b, err
}

// WriteInflate writes inflated p to w and returns the number of
// uncompressed bytes written to w.
//
// Payloads lacking the zlib header marker in the first byte are
// inflated as raw deflate streams.
func WriteInflate(w io.Writer, p []byte) (int, error) {
	r := &byteSliceReader{b: p}

	if len(p) > 0 && p[0]&0x0f != 0x08 {
		zr, err := acquireRawDeflateReader(r)
		if err != nil {
			return 0, err
		}
		n, err := copyZeroAlloc(w, zr)
		releaseRawDeflateReader(zr)
		nn := int(n)
		if int64(nn) != n {
			return 0, fmt.Errorf("too much data inflated: %d", n)
		}
		return nn, err
	}

	zr, err := acquireZlibReader(r)
	if err != nil {
		return 0, err
	}
	n, err := copyZeroAlloc(w, zr)
	releaseZlibReader(zr)
	nn := int(n)
	if int64(nn) != n {
		return 0, fmt.Errorf("too much data inflated: %d", n)
	}
	return nn, err
}

// AppendInflateBytes appends inflated src to dst and returns the
// resulting dst.
func AppendInflateBytes(dst, src []byte) ([]byte, error) {
	w := &byteSliceWriter{b: dst}
	_, err := WriteInflate(w, src)
	return w.b, err
}

// WriteUnbrotli writes un-brotlied p to w and returns the number of
// uncompressed bytes written to w.
func WriteUnbrotli(w io.Writer, p []byte) (int, error) {
	r := &byteSliceReader{b: p}
	zr, err := acquireBrotliReader(r)
	if err != nil {
		return 0, err
	}
	n, err := copyZeroAlloc(w, zr)
	releaseBrotliReader(zr)
	nn := int(n)
	if int64(nn) != n {
		return 0, fmt.Errorf("too much data unbrotlied: %d", n)
	}
	return nn, err
}

// AppendUnbrotliBytes appends un-brotlied src to dst and returns the
// resulting dst.
func AppendUnbrotliBytes(dst, src []byte) ([]byte, error) {
	w := &byteSliceWriter{b: dst}
	_, err := WriteUnbrotli(w, src)
	return w.b, err
}

// WriteUnzstd writes un-zstded p to w and returns the number of
// uncompressed bytes written to w.
func WriteUnzstd(w io.Writer, p []byte) (int, error) {
	r := &byteSliceReader{b: p}
	zr, err := acquireZstdReader(r)
	if err != nil {
		return 0, err
	}
	n, err := copyZeroAlloc(w, zr)
	releaseZstdReader(zr)
	nn := int(n)
	if int64(nn) != n {
		return 0, fmt.Errorf("too much data unzstded: %d", n)
	}
	return nn, err
}

// AppendUnzstdBytes appends un-zstded src to dst and returns the
// resulting dst.
func AppendUnzstdBytes(dst, src []byte) ([]byte, error) {
	w := &byteSliceWriter{b: dst}
	_, err := WriteUnzstd(w, src)
	return w.b, err
}
