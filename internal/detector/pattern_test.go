package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPattern(t *testing.T) {
	t.Parallel()

	p, err := NewPattern(DefaultPattern)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Width())
	assert.Equal(t, 4, p.Height())
	assert.Equal(t, DefaultPattern, p.Rows())
	assert.Equal(t, "010/111/010/101", p.String())
}

func TestNewPatternRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows [][]uint8
	}{
		{"nil", nil},
		{"empty row", [][]uint8{{}}},
		{"ragged", [][]uint8{{0, 1, 0}, {1, 1}}},
		{"non binary", [][]uint8{{0, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewPattern(tt.rows)
			require.ErrorIs(t, err, ErrInvalidPattern)
			assert.Nil(t, p)
		})
	}
}

func TestPatternIsolatedFromCaller(t *testing.T) {
	t.Parallel()

	rows := [][]uint8{{1, 0}, {0, 1}}
	p := MustPattern(rows)

	rows[0][0] = 0
	assert.Equal(t, uint8(1), p.Rows()[0][0])

	out := p.Rows()
	out[1][1] = 0
	assert.Equal(t, "10/01", p.String())
}

func TestParsePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want [][]uint8
	}{
		{"010/111/010/101", DefaultPattern},
		{"010\n111\n010\n101\n", DefaultPattern},
		{" 0 1 0 ; 1 1 1 ", [][]uint8{{0, 1, 0}, {1, 1, 1}}},
		{"1", [][]uint8{{1}}},
	}

	for _, tt := range tests {
		p, err := ParsePattern(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, p.Rows(), tt.in)
	}

	for _, bad := range []string{"", "01x", "01/1", "012"} {
		_, err := ParsePattern(bad)
		assert.ErrorIs(t, err, ErrInvalidPattern, bad)
	}

	assert.Panics(t, func() { MustPattern(nil) })
}
