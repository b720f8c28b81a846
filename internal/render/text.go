// Package render turns frames into text for terminals and logs
package render

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/tphakala/motiondetector/internal/frame"
)

// Cell glyphs
const (
	GlyphEmpty   = '.'
	GlyphActive  = '+'
	GlyphMatched = '$'
)

// TextOption configures a TextRenderer
type TextOption func(*TextRenderer)

// WithColor enables or disables ANSI colors. Colors are off by default.
func WithColor(enabled bool) TextOption {
	return func(r *TextRenderer) {
		r.color = enabled
	}
}

// TextRenderer writes frames as rows of glyphs. Render is safe for
// concurrent use; each frame is written with a single Write call.
type TextRenderer struct {
	mu      sync.Mutex
	w       io.Writer
	color   bool
	active  *color.Color
	matched *color.Color
	buf     bytes.Buffer
	err     error
}

// NewTextRenderer creates a renderer writing to w
func NewTextRenderer(w io.Writer, opts ...TextOption) *TextRenderer {
	r := &TextRenderer{
		w:       w,
		active:  color.New(color.FgGreen),
		matched: color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(r)
	}
	// Output often goes to a pipe or a Tail buffer, not a TTY, where the
	// package-level color.NoColor is set. Each glyph is wrapped with its own
	// set and reset codes so no color state leaks past it.
	if r.color {
		r.active.EnableColor()
		r.matched.EnableColor()
	} else {
		r.active.DisableColor()
		r.matched.DisableColor()
	}
	return r
}

// Render writes f. Write errors are kept and reported by Err.
func (r *TextRenderer) Render(f *frame.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Reset()
	r.format(&r.buf, f)
	if _, err := r.w.Write(r.buf.Bytes()); err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first write error, if any
func (r *TextRenderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *TextRenderer) format(b *bytes.Buffer, f *frame.Frame) {
	fmt.Fprintf(b, "Frame #%d width: %d height: %d\n", f.Seq, f.Width, f.Height)
	for _, row := range f.Pixels {
		for c, cell := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			switch cell {
			case frame.Active:
				b.WriteString(r.active.Sprint(string(GlyphActive)))
			case frame.Matched:
				b.WriteString(r.matched.Sprint(string(GlyphMatched)))
			default:
				b.WriteByte(GlyphEmpty)
			}
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

// Format returns the uncolored rendering of f
func Format(f *frame.Frame) string {
	var b bytes.Buffer
	NewTextRenderer(nil).format(&b, f)
	return b.String()
}
