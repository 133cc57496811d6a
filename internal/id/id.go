// Package id generates the prefixed identifiers used for playback sessions,
// command events and analysis batches.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifiers minted by this service.
const (
	PrefixSession = "ses"
	PrefixEvent   = "evt"
	PrefixBatch   = "run"
	PrefixClient  = "sse"
)

// Generate creates an identifier of the form prefix-nanoid
// (e.g. "run-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if entropy is unavailable.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
