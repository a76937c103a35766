// Package fecrypto provides the keccak256 hashing and XOR-stream masking
// primitives shared by the Merkle digest function and the verifiable
// encoding scheme, built on go-ethereum's crypto package so every protocol
// component gets Solidity-compatible digests.
package fecrypto

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
)

// Keccak256 hashes the concatenation of data and returns it as a
// merkle.Digest. It satisfies merkle.DigestFunc.
func Keccak256(data ...[]byte) merkle.Digest {
	return merkle.Digest(crypto.Keccak256Hash(data...))
}

// indexToBytes32 big-endian-encodes index into a 32-byte word, matching the
// ABI encoding Solidity's keccak256(abi.encodePacked(uint256,bytes32)) would
// produce for the index half of the mask pre-image.
func indexToBytes32(index uint64) [32]byte {
	var out [32]byte
	binary.BigEndian.PutUint64(out[24:], index)
	return out
}

// Mask derives the keystream block for slot index under key: the seller
// reveals one 32-byte key, and both parties must independently derive the
// same keystream for every leaf and digest-pack slot without exchanging any
// further secret material.
func Mask(index uint64, key [32]byte) [32]byte {
	idx := indexToBytes32(index)
	digest := Keccak256(idx[:], key[:])
	return [32]byte(digest)
}

// Crypt XORs value against the keystream derived from index and key,
// tiling Mask as many times as needed to cover len(value). Crypt is its own
// inverse: Crypt(Crypt(v, i, k), i, k) == v.
func Crypt(value []byte, index uint64, key [32]byte) []byte {
	out := make([]byte, len(value))
	mask := Mask(index, key)
	for i := range out {
		out[i] = value[i] ^ mask[i%len(mask)]
	}
	return out
}
