package render

import (
	"sync"

	"github.com/smallnest/ringbuffer"
)

// Tail is an io.Writer that keeps only the most recent bytes written to it.
// Older bytes are dropped as new ones arrive.
type Tail struct {
	mu    sync.Mutex
	rb    *ringbuffer.RingBuffer
	size  int
	total uint64
}

// NewTail creates a Tail holding at most size bytes. Sizes below one are raised to one.
func NewTail(size int) *Tail {
	size = max(size, 1)
	return &Tail{rb: ringbuffer.New(size), size: size}
}

// Write appends p, dropping the oldest bytes when the buffer is full. It
// always reports len(p) bytes written.
func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total += uint64(len(p))
	if len(p) == 0 {
		return 0, nil
	}

	if len(p) >= t.size {
		t.rb.Reset()
		if _, err := t.rb.Write(p[len(p)-t.size:]); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	if excess := len(p) - t.rb.Free(); excess > 0 {
		if _, err := t.rb.Read(make([]byte, excess)); err != nil {
			return 0, err
		}
	}
	if _, err := t.rb.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// String returns the retained bytes without consuming them
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.rb.Length()
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := t.rb.Read(buf); err != nil {
		return ""
	}
	// Reading consumed the bytes, put them back
	_, _ = t.rb.Write(buf)
	return string(buf)
}

// Len returns the number of bytes retained
func (t *Tail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rb.Length()
}

// Size returns the retention limit
func (t *Tail) Size() int { return t.size }

// Total returns the number of bytes ever written
func (t *Tail) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
