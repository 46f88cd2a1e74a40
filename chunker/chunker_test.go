package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \n\t ", want: ""},
		{name: "newlines and tabs", in: "Section 44\n\n(2)\t(b)  applies ", want: "Section 44 (2) (b) applies"},
		{name: "already clean", in: "a b c", want: "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{Size: 1000, Overlap: 400}},
		{name: "no overlap", cfg: Config{Size: 10, Overlap: 0}},
		{name: "zero size", cfg: Config{Size: 0, Overlap: 0}, wantErr: true},
		{name: "negative overlap", cfg: Config{Size: 10, Overlap: -1}, wantErr: true},
		{name: "overlap equals size", cfg: Config{Size: 10, Overlap: 10}, wantErr: true},
		{name: "overlap above size", cfg: Config{Size: 10, Overlap: 11}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChunkText(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		got, err := ChunkText("", 1000, 400)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("shorter than size", func(t *testing.T) {
		got, err := ChunkText("short", 1000, 400)
		require.NoError(t, err)
		assert.Equal(t, []string{"short"}, got)
	})

	t.Run("overlap equal to size", func(t *testing.T) {
		_, err := ChunkText("some text", 10, 10)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("windows", func(t *testing.T) {
		got, err := ChunkText("abcdefghij", 4, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"abcd", "cdef", "efgh", "ghij", "ij"}, got)
	})

	t.Run("no overlap", func(t *testing.T) {
		got, err := ChunkText("abcdefghij", 5, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"abcde", "fghij"}, got)
	})
}

func TestSplit_Properties(t *testing.T) {
	text := strings.Repeat("আয়কর অধ্যাদেশ Section 44(2)(b) rebate ", 90)

	for _, cfg := range []Config{{Size: 1000, Overlap: 400}, {Size: 100}, {Size: 37, Overlap: 36}, {Size: 5, Overlap: 1}} {
		chunks, err := Split(text, cfg.Size, cfg.Overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		n := utf8.RuneCountInString(text)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, i*cfg.Stride(), c.Offset)
			assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), cfg.Size)
			assert.True(t, utf8.ValidString(c.Text))
			if i > 0 {
				prev := []rune(chunks[i-1].Text)
				cur := []rune(c.Text)
				overlap := min(cfg.Overlap, len(cur))
				if len(prev) == cfg.Size {
					assert.Equal(t, string(prev[cfg.Stride():cfg.Stride()+overlap]), string(cur[:overlap]))
				}
			}
		}
		assert.Less(t, chunks[len(chunks)-1].Offset, n)
		assert.Equal(t, text, Reconstruct(chunks))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("x", 2500)
	a, err := Split(text, 1000, 400)
	require.NoError(t, err)
	b, err := Split(text, 1000, 400)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 5)
}
