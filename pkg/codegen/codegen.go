// Package codegen issues short session codes that students can type from a projected QR link.
package codegen

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Alphabet omits characters that are easy to confuse when read aloud or from a screen (0/O, 1/I).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultLength yields 32^8 (about 1.1e12) possible codes.
const DefaultLength = 8

// Generator draws codes from a cryptographically secure source.
type Generator struct {
	length int
	rand   io.Reader
}

// New returns a generator producing codes of the given length backed by crypto/rand.
func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length, rand: rand.Reader}
}

// Generate returns a fresh code of the configured length.
func (g *Generator) Generate() (string, error) {
	return generate(g.rand, g.length)
}

// Generate returns a code of the given length using crypto/rand.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	return generate(rand.Reader, length)
}

func generate(src io.Reader, length int) (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(src, max)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}
