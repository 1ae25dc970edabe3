package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneSlice(t *testing.T) {
	require := require.New(t)

	src := []byte("hello")
	clone := CloneSlice(src, 0)
	require.Equal(src, clone)

	clone[0] = 'j'
	require.Equal("hello", string(src))

	padded := CloneSlice(src, 8)
	require.Len(padded, 8)
	require.Equal("hello", string(padded[:5]))
}
