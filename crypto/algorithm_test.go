package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlgorithm_String(t *testing.T) {
	tests := []struct {
		alg      Algorithm
		expected string
	}{
		{AlgorithmEd25519, "ed25519"},
		{AlgorithmSecp256k1, "secp256k1"},
		{AlgorithmXChaCha20Poly1305, "xchacha20poly1305"},
		{AlgorithmBlake2bMAC, "blake2b-mac"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.alg.String())
		})
	}
}

func TestAlgorithm_IsValid(t *testing.T) {
	tests := []struct {
		alg   Algorithm
		valid bool
	}{
		{AlgorithmEd25519, true},
		{AlgorithmSecp256k1, true},
		{AlgorithmXChaCha20Poly1305, true},
		{AlgorithmBlake2bMAC, true},
		{AlgorithmHex, true},
		{AlgorithmRaw, true},
		{Algorithm("unknown"), false},
		{Algorithm(""), false},
		{Algorithm("ED25519"), false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.alg.IsValid())
		})
	}
}

func TestAlgorithm_IsAsymmetricSignature(t *testing.T) {
	assert.True(t, AlgorithmEd25519.IsAsymmetricSignature())
	assert.True(t, AlgorithmSecp256k1.IsAsymmetricSignature())
	assert.False(t, AlgorithmXChaCha20Poly1305.IsAsymmetricSignature())
	assert.False(t, AlgorithmBlake2bMAC.IsAsymmetricSignature())
}
