package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	assert.Equal(t, DefaultLength, NewGenerator(0).Length())
	assert.Equal(t, DefaultLength, NewGenerator(-3).Length())
	assert.Equal(t, 10, NewGenerator(10).Length())
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("length and alphabet", func(t *testing.T) {
		g := NewGenerator(DefaultLength)

		for i := 0; i < 1000; i++ {
			code, err := g.Generate()
			require.NoError(t, err)

			assert.Len(t, code, DefaultLength)
			for _, c := range code {
				assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected symbol %q in %q", c, code)
			}
		}
	})

	t.Run("distinct codes", func(t *testing.T) {
		g := NewGenerator(DefaultLength)
		seen := make(map[string]struct{}, 100)

		for i := 0; i < 100; i++ {
			code, err := g.Generate()
			require.NoError(t, err)
			seen[code] = struct{}{}
		}

		assert.GreaterOrEqual(t, len(seen), 95)
	})
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, Alphabet, 62)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "alphanumeric", code: "aB3xY9", want: true},
		{name: "digits only", code: "123456", want: true},
		{name: "empty", code: "", want: false},
		{name: "punctuation", code: "abc-123!", want: false},
		{name: "space", code: "abc 12", want: false},
		{name: "non-ascii letter", code: "abcdé1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.code))
		})
	}
}
