package fastbody

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestTeeReaderSequential(t *testing.T) {
	t.Parallel()

	data := createFixedBody(100000)
	r1, r2 := teeReader(bytes.NewReader(data))

	got1, err := io.ReadAll(r1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got2, err := io.ReadAll(r2)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !bytes.Equal(got1, data) {
		t.Fatalf("unexpected first branch len %d. Expecting %d", len(got1), len(data))
	}
	if !bytes.Equal(got2, data) {
		t.Fatalf("unexpected second branch len %d. Expecting %d", len(got2), len(data))
	}
}

func TestTeeReaderInterleaved(t *testing.T) {
	t.Parallel()

	data := createFixedBody(10000)
	r1, r2 := teeReader(&dribbleReader{data: data, step: 17})

	var got1, got2 []byte
	buf1 := make([]byte, 13)
	buf2 := make([]byte, 29)
	done1, done2 := false, false
	for !done1 || !done2 {
		if !done1 {
			n, err := r1.Read(buf1)
			got1 = append(got1, buf1[:n]...)
			if err == io.EOF {
				done1 = true
			} else if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
		}
		if !done2 {
			n, err := r2.Read(buf2)
			got2 = append(got2, buf2[:n]...)
			if err == io.EOF {
				done2 = true
			} else if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
		}
	}

	if !bytes.Equal(got1, data) {
		t.Fatalf("unexpected first branch len %d. Expecting %d", len(got1), len(data))
	}
	if !bytes.Equal(got2, data) {
		t.Fatalf("unexpected second branch len %d. Expecting %d", len(got2), len(data))
	}
}

func TestTeeReaderErrorPropagation(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("stream broke")
	r1, r2 := teeReader(&failingReader{data: []byte("common prefix"), err: errBoom})

	got1, err := io.ReadAll(r1)
	if !errors.Is(err, errBoom) {
		t.Fatalf("unexpected error: %v. Expecting the stream error", err)
	}
	got2, err := io.ReadAll(r2)
	if !errors.Is(err, errBoom) {
		t.Fatalf("unexpected error on second branch: %v. Expecting the stream error", err)
	}
	if string(got1) != "common prefix" || string(got2) != "common prefix" {
		t.Fatalf("both branches must observe the prefix, got %q and %q", got1, got2)
	}
}

func TestTeeReaderConcurrent(t *testing.T) {
	t.Parallel()

	data := createFixedBody(200000)
	r1, r2 := teeReader(bytes.NewReader(data))

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 2)
	for _, r := range []io.Reader{r1, r2} {
		go func(r io.Reader) {
			d, err := io.ReadAll(r)
			ch <- readResult{data: d, err: err}
		}(r)
	}
	for i := 0; i < 2; i++ {
		select {
		case res := <-ch:
			if res.err != nil {
				t.Fatalf("unexpected error: %s", res.err)
			}
			if !bytes.Equal(res.data, data) {
				t.Fatalf("unexpected branch len %d. Expecting %d", len(res.data), len(data))
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout")
		}
	}
}
