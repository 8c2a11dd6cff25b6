// Package id generates prefixed NanoID identifiers such as
// "recipe-V1StGXR8_Z5jdHi6B-myT". The prefix makes IDs self-describing in
// logs and API payloads; the 21-character NanoID body stays shorter than a
// UUID while carrying comparable entropy.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new identifier of the form "<prefix>-<nanoid>".
// It fails only when the system cannot supply secure random bytes.
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + suffix, nil
}

// MustGenerate is Generate for paths where entropy exhaustion should crash
// the program, such as startup and seeding.
func MustGenerate(prefix string) string {
	generated, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return generated
}
