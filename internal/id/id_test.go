package id_test

import (
	"strings"
	"testing"

	"github.com/msomdec/clip/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	got, err := id.Generate(id.PrefixCategory)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "cat-"))
	// Default NanoID is 21 characters.
	assert.Len(t, got, len("cat-")+21)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		got := id.MustGenerate(id.PrefixScrap)
		require.False(t, seen[got], "duplicate id %s", got)
		seen[got] = true
	}
}
