// Package detector finds occurrences of a binary pattern in frames and marks
// the active cells of every occurrence as Matched.
package detector

import (
	"fmt"
	"strings"

	"github.com/tphakala/motiondetector/internal/errors"
	"github.com/tphakala/motiondetector/internal/frame"
)

// Mode selects what later comparisons see after an earlier overlapping match
// has been marked.
type Mode int

const (
	// MatchLive compares against the frame as it is being marked, so cells
	// already turned Matched no longer equal the pattern's 0/1 values.
	MatchLive Mode = iota

	// MatchSnapshot compares against a copy taken before any marking and
	// then marks the live frame.
	MatchSnapshot
)

func (m Mode) String() string {
	switch m {
	case MatchLive:
		return "live"
	case MatchSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "live" or "snapshot" to a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "live":
		return MatchLive, nil
	case "snapshot":
		return MatchSnapshot, nil
	default:
		return MatchLive, errors.Newf("unknown match mode %q", s).
			Component(ComponentDetector).
			Category(errors.CategoryConfiguration).
			Context("resource", "match_mode").
			Build()
	}
}

// Match is the top-left anchor of a pattern occurrence
type Match struct {
	Row int
	Col int
}

// Matcher applies one pattern to frames. It holds no per-frame state and is
// safe for concurrent use on distinct frames.
type Matcher struct {
	pattern *Pattern
	mode    Mode
}

// Option configures a Matcher
type Option func(*Matcher)

// WithMode sets the overlap mode
func WithMode(mode Mode) Option {
	return func(m *Matcher) {
		m.mode = mode
	}
}

// NewMatcher creates a matcher for p
func NewMatcher(p *Pattern, opts ...Option) *Matcher {
	m := &Matcher{pattern: p, mode: MatchLive}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pattern returns the pattern being matched
func (m *Matcher) Pattern() *Pattern { return m.pattern }

// Mode returns the overlap mode
func (m *Matcher) Mode() Mode { return m.mode }

// Apply scans every anchor where the pattern fits entirely inside f, in
// row-major order, and marks each full match in place. Cells the pattern
// expects active and the frame holds nonzero become Matched; background
// cells stay untouched. A frame smaller than the pattern in either dimension
// is left unchanged.
func (m *Matcher) Apply(f *frame.Frame) []Match {
	if f == nil || !m.fits(f.Pixels) {
		return nil
	}

	if m.mode == MatchSnapshot {
		matches := m.Find(f.Pixels)
		for _, match := range matches {
			m.mark(f.Pixels, match)
		}
		return matches
	}

	var matches []Match
	ph, pw := m.pattern.Height(), m.pattern.Width()
	for j := 0; j <= len(f.Pixels)-ph; j++ {
		for i := 0; i <= len(f.Pixels[0])-pw; i++ {
			if m.matchAt(f.Pixels, j, i) {
				match := Match{Row: j, Col: i}
				m.mark(f.Pixels, match)
				matches = append(matches, match)
			}
		}
	}
	return matches
}

// Find returns every anchor where the pattern matches grid without modifying it
func (m *Matcher) Find(grid [][]uint8) []Match {
	if !m.fits(grid) {
		return nil
	}

	var matches []Match
	ph, pw := m.pattern.Height(), m.pattern.Width()
	for j := 0; j <= len(grid)-ph; j++ {
		for i := 0; i <= len(grid[0])-pw; i++ {
			if m.matchAt(grid, j, i) {
				matches = append(matches, Match{Row: j, Col: i})
			}
		}
	}
	return matches
}

func (m *Matcher) fits(grid [][]uint8) bool {
	return len(grid) >= m.pattern.Height() &&
		len(grid[0]) >= m.pattern.Width()
}

// matchAt compares pattern row 0 first and only then the remaining rows
func (m *Matcher) matchAt(grid [][]uint8, j, i int) bool {
	for k, prow := range m.pattern.rows {
		row := grid[j+k]
		if len(row) < i+len(prow) {
			return false
		}
		for c, v := range prow {
			if row[i+c] != v {
				return false
			}
		}
	}
	return true
}

func (m *Matcher) mark(grid [][]uint8, match Match) {
	for k, prow := range m.pattern.rows {
		row := grid[match.Row+k]
		for c, v := range prow {
			if v != 0 && row[match.Col+c] != 0 {
				row[match.Col+c] = frame.Matched
			}
		}
	}
}
