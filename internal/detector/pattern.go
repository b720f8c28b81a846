package detector

import (
	"strings"
)

// Pattern is a rectangular binary template. Cells are 0 (background) or 1 (active).
type Pattern struct {
	rows  [][]uint8
	width int
}

// DefaultPattern is the cross-with-legs shape the detector looks for by default
var DefaultPattern = [][]uint8{
	{0, 1, 0},
	{1, 1, 1},
	{0, 1, 0},
	{1, 0, 1},
}

// NewPattern validates rows and copies them into a Pattern.
// rows must be non-empty and rectangular, and hold only 0 and 1.
func NewPattern(rows [][]uint8) (*Pattern, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, patternError("pattern must have at least one row and one column")
	}

	width := len(rows[0])
	copied := make([][]uint8, len(rows))
	for r, row := range rows {
		if len(row) != width {
			return nil, patternError("pattern row %d has %d cells, want %d", r, len(row), width)
		}
		for c, v := range row {
			if v > 1 {
				return nil, patternError("pattern cell (%d,%d) has value %d, want 0 or 1", r, c, v)
			}
		}
		copied[r] = append([]uint8(nil), row...)
	}

	return &Pattern{rows: copied, width: width}, nil
}

// MustPattern is NewPattern for literals; it panics on error.
func MustPattern(rows [][]uint8) *Pattern {
	p, err := NewPattern(rows)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePattern reads a pattern written as rows of 0/1 digits separated by
// '/' or newlines, e.g. "010/111/010/101". Whitespace is ignored.
func ParsePattern(s string) (*Pattern, error) {
	lines := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\n' || r == ';'
	})

	rows := make([][]uint8, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), "")
		if line == "" {
			continue
		}
		row := make([]uint8, 0, len(line))
		for _, ch := range line {
			switch ch {
			case '0':
				row = append(row, 0)
			case '1':
				row = append(row, 1)
			default:
				return nil, patternError("pattern %q contains %q, want 0 or 1", s, ch)
			}
		}
		rows = append(rows, row)
	}

	return NewPattern(rows)
}

// Width returns the number of columns
func (p *Pattern) Width() int { return p.width }

// Height returns the number of rows
func (p *Pattern) Height() int { return len(p.rows) }

// Rows returns a copy of the pattern cells
func (p *Pattern) Rows() [][]uint8 {
	out := make([][]uint8, len(p.rows))
	for r, row := range p.rows {
		out[r] = append([]uint8(nil), row...)
	}
	return out
}

// String renders the pattern in the ParsePattern format
func (p *Pattern) String() string {
	var b strings.Builder
	for r, row := range p.rows {
		if r > 0 {
			b.WriteByte('/')
		}
		for _, v := range row {
			b.WriteByte('0' + v)
		}
	}
	return b.String()
}
