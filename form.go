package fastbody

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// MultipartStream adapts a parsed multipart form to a streaming body
// source encoded with the given boundary.
//
// The form is encoded lazily on the first Read. Close releases the
// encoder; it is needed only when the stream was abandoned before the
// end, for example after an aborted consumption, since a fully drained
// stream releases the encoder on its own.
type MultipartStream struct {
	form     *multipart.Form
	boundary string

	mu sync.Mutex
	pr *io.PipeReader
}

var _ FormStream = &MultipartStream{}

// NewMultipartStream returns a body source streaming the encoded form.
func NewMultipartStream(form *multipart.Form, boundary string) *MultipartStream {
	return &MultipartStream{
		form:     form,
		boundary: boundary,
	}
}

// Boundary returns the multipart boundary the form is encoded with.
func (s *MultipartStream) Boundary() string {
	return s.boundary
}

// Len returns the exact encoded size of the form.
//
// Forms carrying file parts return -1, since the files would have to be
// read to size them. Value-only forms are dry-run encoded.
func (s *MultipartStream) Len() int64 {
	if len(s.form.File) > 0 {
		return -1
	}
	var cw countingWriter
	if err := WriteMultipartForm(&cw, s.form, s.boundary); err != nil {
		return -1
	}
	return cw.n
}

func (s *MultipartStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if s.pr == nil {
		pr, pw := io.Pipe()
		s.pr = pr
		go func() {
			pw.CloseWithError(WriteMultipartForm(pw, s.form, s.boundary))
		}()
	}
	pr := s.pr
	s.mu.Unlock()
	return pr.Read(p)
}

// Close stops the encoder. Reads after Close fail.
func (s *MultipartStream) Close() error {
	s.mu.Lock()
	pr := s.pr
	s.mu.Unlock()
	if pr != nil {
		return pr.Close()
	}
	return nil
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// WriteMultipartForm writes the given multipart form f with the given
// boundary to w.
func WriteMultipartForm(w io.Writer, f *multipart.Form, boundary string) error {
	// Do not care about memory allocations here, since multipart
	// form processing is slow.
	if boundary == "" {
		return errors.New("form boundary cannot be empty")
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("cannot use form boundary %q: %w", boundary, err)
	}

	// marshal values
	for k, vv := range f.Value {
		for _, v := range vv {
			if err := mw.WriteField(k, v); err != nil {
				return fmt.Errorf("cannot write form field %q value %q: %w", k, v, err)
			}
		}
	}

	// marshal files
	for k, fvv := range f.File {
		for _, fv := range fvv {
			vw, err := mw.CreatePart(fv.Header)
			if err != nil {
				return fmt.Errorf("cannot create form file %q (%q): %w", k, fv.Filename, err)
			}
			fh, err := fv.Open()
			if err != nil {
				return fmt.Errorf("cannot open form file %q (%q): %w", k, fv.Filename, err)
			}
			if _, err = copyZeroAlloc(vw, fh); err != nil {
				_ = fh.Close()
				return fmt.Errorf("error when copying form file %q (%q): %w", k, fv.Filename, err)
			}
			if err = fh.Close(); err != nil {
				return fmt.Errorf("cannot close form file %q (%q): %w", k, fv.Filename, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("error when closing multipart form writer: %w", err)
	}

	return nil
}
