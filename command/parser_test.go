package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AllChannelValues(t *testing.T) {
	require := require.New(t)

	for v := 0; v <= MaxChannel; v++ {
		r, g, b := v, MaxChannel-v, (v*7)%256
		query := fmt.Sprintf("r=%d&g=%d&b=%d", r, g, b)

		cmd, err := Parse(query)
		require.NoError(err, query)
		require.Equal(Command{Red: uint8(r), Green: uint8(g), Blue: uint8(b)}, cmd, query)
		require.Equal(fmt.Sprintf("C:%d,%d,%d\n", r, g, b), string(cmd.Frame()), query)
	}
}

func TestParse_Defaults(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		query string
		want  Command
	}{
		{"r=10&b=5", Command{Red: 10, Blue: 5}},
		{"", Command{}},
		{"g=1", Command{Green: 1}},
		{"r=1&x=42&b=3", Command{Red: 1, Blue: 3}},
		{"r=1&&g=2&", Command{Red: 1, Green: 2}},
		{"r=1&r=200", Command{Red: 200}},
		{"r=007&g=0&b=00", Command{Red: 7}},
		{"mode=&r=9", Command{Red: 9}},
	}

	for _, tt := range tests {
		cmd, err := Parse(tt.query)
		assert.NoError(err, tt.query)
		assert.Equal(tt.want, cmd, tt.query)
	}
}

func TestParse_Failures(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		query string
		key   string
		want  error
	}{
		{"r=999&g=0&b=0", "r", ErrOutOfRange},
		{"r=256", "r", ErrOutOfRange},
		{"g=-1", "g", ErrOutOfRange},
		{"b=99999999999999999999999", "b", ErrOutOfRange},
		{"r=abc", "r", ErrInvalidValue},
		{"r=", "r", ErrInvalidValue},
		{"g=1.5", "g", ErrInvalidValue},
		{"b=%32", "b", ErrInvalidValue},
		{"r=1&garbage&b=2", "", ErrMalformedPair},
		{"rgb", "", ErrMalformedPair},
	}

	for _, tt := range tests {
		cmd, err := Parse(tt.query)
		assert.Error(err, tt.query)
		assert.ErrorIs(err, tt.want, tt.query)
		assert.Equal(Command{}, cmd, tt.query)

		var perr *ParseError
		if assert.True(errors.As(err, &perr), tt.query) {
			assert.Equal(tt.key, perr.Key, tt.query)
		}
	}
}

func TestParse_Idempotent(t *testing.T) {
	require := require.New(t)

	for _, query := range []string{"r=1&g=2&b=3", "b=255", "r=12&unknown=x"} {
		first, err := Parse(query)
		require.NoError(err)
		second, err := Parse(query)
		require.NoError(err)
		require.Equal(first, second)
	}
}
