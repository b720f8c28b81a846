package render

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/motiondetector/internal/frame"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	f := frame.MustNew(3, 2, [][]uint8{
		{0, 1, 2},
		{2, 0, 1},
	})
	f.Seq = 12

	want := "Frame #12 width: 3 height: 2\n" +
		". + $\n" +
		"$ . +\n" +
		"\n"
	assert.Equal(t, want, Format(f))
}

func TestTextRendererPlain(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewTextRenderer(&out)
	f := frame.MustNew(2, 1, [][]uint8{{1, 0}})
	f.Seq = 1

	r.Render(f)
	r.Render(f)
	assert.Equal(t, strings.Repeat(Format(f), 2), out.String())
	require.NoError(t, r.Err())
}

func TestTextRendererColor(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewTextRenderer(&out, WithColor(true))
	r.Render(frame.MustNew(3, 1, [][]uint8{{0, 1, 2}}))

	got := out.String()
	assert.Contains(t, got, "\x1b[32m+\x1b[0m", "active cells are green")
	assert.Contains(t, got, "\x1b[31;1m$\x1b[0;22m", "matched cells are bold red")
	assert.Contains(t, got, ". ")
}

func TestTextRendererColorResetsAfterEachGlyph(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewTextRenderer(&out, WithColor(true))
	r.Render(frame.MustNew(3, 2, [][]uint8{{2, 0, 1}, {0, 0, 0}}))

	want := "Frame #0 width: 3 height: 2\n" +
		"\x1b[31;1m$\x1b[0;22m . \x1b[32m+\x1b[0m\n" +
		". . .\n" +
		"\n"
	assert.Equal(t, want, out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTextRendererKeepsFirstError(t *testing.T) {
	t.Parallel()

	r := NewTextRenderer(failingWriter{})
	r.Render(frame.MustNew(1, 1, nil))
	require.EqualError(t, r.Err(), "disk full")
}

func TestTextRendererConcurrentFramesDoNotInterleave(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewTextRenderer(&out)
	f := frame.MustNew(4, 4, nil)
	g := frame.MustNew(4, 4, [][]uint8{{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			if i%2 == 0 {
				r.Render(f)
			} else {
				r.Render(g)
			}
		})
	}
	wg.Wait()

	blocks := strings.SplitAfter(out.String(), "\n\n")
	blocks = blocks[:len(blocks)-1]
	require.Len(t, blocks, 20)
	for _, b := range blocks {
		assert.Contains(t, []string{Format(f), Format(g)}, b)
	}
}

func TestTailKeepsMostRecentBytes(t *testing.T) {
	t.Parallel()

	tail := NewTail(8)
	for _, s := range []string{"abc", "def", "ghij"} {
		n, err := tail.Write([]byte(s))
		require.NoError(t, err)
		assert.Equal(t, len(s), n)
	}
	assert.Equal(t, "cdefghij", tail.String())
	assert.Equal(t, "cdefghij", tail.String(), "String does not consume")
	assert.Equal(t, 8, tail.Len())
	assert.Equal(t, uint64(10), tail.Total())

	_, err := tail.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, "23456789", tail.String())

	_, err = tail.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "3456789x", tail.String())
}

func TestTailSmallAndEmpty(t *testing.T) {
	t.Parallel()

	tail := NewTail(0)
	assert.Equal(t, 1, tail.Size())
	assert.Empty(t, tail.String())

	n, err := tail.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = tail.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, "b", tail.String())
}

func TestTailAsRendererOutput(t *testing.T) {
	t.Parallel()

	f1 := frame.MustNew(2, 2, nil)
	f1.Seq = 1
	f2 := frame.MustNew(2, 2, [][]uint8{{1, 2}, {0, 1}})
	f2.Seq = 2

	last := Format(f2)
	tail := NewTail(len(last))
	r := NewTextRenderer(tail)
	r.Render(f1)
	r.Render(f2)

	assert.Equal(t, last, tail.String())
}
