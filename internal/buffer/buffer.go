package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"math"
)

// ErrCapacityOverflow is raised (as a panic) when a buffer cannot grow any further.
var ErrCapacityOverflow = errors.New("buffer capacity overflow")

const minCapacity = 8

// Buffer is a growable byte sequence used for scratch string construction:
// token text, diagnostics, generated names.
// The zero value is an empty buffer ready to use.
type Buffer struct {
	body []byte
}

// New returns an empty buffer with the default capacity.
func New() *Buffer {
	return NewSize(minCapacity)
}

// NewSize returns an empty buffer that can hold n bytes without growing.
func NewSize(n int) *Buffer {
	if n < minCapacity {
		n = minCapacity
	}
	return &Buffer{body: make([]byte, 0, n)}
}

// Len reports the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.body) }

// Cap reports the allocated capacity.
func (b *Buffer) Cap() int { return cap(b.body) }

// grow makes room for n more bytes. Capacity doubles until the request fits.
func (b *Buffer) grow(n int) {
	need := len(b.body) + n
	if n < 0 || need < len(b.body) {
		panic(fmt.Errorf("grow by %d at length %d: %w", n, len(b.body), ErrCapacityOverflow))
	}
	if need <= cap(b.body) {
		return
	}
	next := cap(b.body)
	if next < minCapacity {
		next = minCapacity
	}
	for next < need {
		if next > math.MaxInt/2 {
			next = need
			break
		}
		next *= 2
	}
	body := make([]byte, len(b.body), next)
	copy(body, b.body)
	b.body = body
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	if len(b.body) == cap(b.body) {
		b.grow(1)
	}
	b.body = append(b.body, c)
}

// WriteByte implements io.ByteWriter. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.AppendByte(c)
	return nil
}

// Write implements io.Writer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	b.body = append(b.body, p...)
	return len(p), nil
}

// WriteString implements io.StringWriter. It never fails.
func (b *Buffer) WriteString(s string) (int, error) {
	b.grow(len(s))
	b.body = append(b.body, s...)
	return len(s), nil
}

// Printf appends formatted text. Output of any length is kept whole.
func (b *Buffer) Printf(format string, args ...any) {
	// Write never fails, so neither does Fprintf here.
	_, _ = fmt.Fprintf(b, format, args...)
}

// Body returns the current contents, embedded NUL bytes included.
func (b *Buffer) Body() string { return string(b.body) }

// CString returns the contents up to the first NUL byte, the way a
// NUL-terminated consumer would read them.
func (b *Buffer) CString() string {
	if i := bytes.IndexByte(b.body, 0); i >= 0 {
		return string(b.body[:i])
	}
	return string(b.body)
}

// Bytes returns the underlying storage. The slice aliases the buffer and
// stays valid only until the next mutating call.
func (b *Buffer) Bytes() []byte { return b.body }

// Reset empties the buffer but keeps its storage.
func (b *Buffer) Reset() { b.body = b.body[:0] }

// String implements fmt.Stringer.
func (b *Buffer) String() string { return b.Body() }
