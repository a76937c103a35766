package fecrypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptIsInvolutive(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("a very secret thirty-two byte k"))

	value := []byte("the quick brown fox jumps things")
	ciphertext := Crypt(value, 7, key)
	require.False(t, bytes.Equal(value, ciphertext))

	plaintext := Crypt(ciphertext, 7, key)
	require.Equal(t, value, plaintext)
}

func TestCryptDiffersByIndex(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("another thirty-two byte test key"))

	value := []byte("fixed plaintext block")
	a := Crypt(value, 0, key)
	b := Crypt(value, 1, key)
	require.NotEqual(t, a, b)
}

func TestKeccak256Deterministic(t *testing.T) {
	require.Equal(t, Keccak256([]byte("x")), Keccak256([]byte("x")))
	require.NotEqual(t, Keccak256([]byte("x")), Keccak256([]byte("y")))
}
