package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "42", "4294967295"})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 42, 4294967295}, ids)

	for _, bad := range []string{"0", "-3", "abc", "4294967296"} {
		_, err := parseIDs([]string{"1", bad})
		assert.Error(t, err, bad)
	}
}
