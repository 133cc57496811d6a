package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		v, err := Generate(PrefixEvent)
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixSession, PrefixEvent, PrefixBatch, PrefixClient} {
		t.Run(prefix, func(t *testing.T) {
			v := MustGenerate(prefix)
			require.True(t, strings.HasPrefix(v, prefix+"-"))
			assert.Len(t, strings.TrimPrefix(v, prefix+"-"), 21)
		})
	}
}
