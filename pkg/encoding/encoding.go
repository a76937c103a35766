// Package encoding implements Fairswap's verifiable encryption scheme: the
// seller encrypts every leaf and every internal digest of a plaintext
// Merkle tree under a single revealed key, and the buyer can independently
// decrypt and re-verify the whole tree once that key is published,
// pinpointing the exact leaf or node a dishonest seller tampered with.
package encoding

import (
	"fmt"

	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
)

// sentinel marks the final leaf of an encoded tree as "this is a Fairswap
// ciphertext tree", letting IsEncoded distinguish an encoded tree from a
// plaintext one without external bookkeeping. It is never produced by
// Crypt, since it is appended after encryption, not encrypted itself.
var sentinel = merkle.Digest{}

// Encode builds the ciphertext Merkle tree the seller publishes: every
// plaintext leaf and every plaintext internal digest (tree.DigestsPack) is
// individually XOR-masked under key at its own slot index, then the
// results - plus a zero sentinel leaf - are assembled into a fresh, larger
// Merkle tree.
func Encode(tree *merkle.Node, key [32]byte) (*merkle.Node, error) {
	return encode(tree, key, identityLeaves)
}

// EncodeForgeFirstLeaf behaves like Encode but zeroes the first plaintext
// leaf before encrypting it, simulating a seller who ships garbage data for
// slice 0. The digest pack is computed from the *original* (unforged) tree,
// so the buyer's decode will surface a LeafDigestMismatch at index 0.
func EncodeForgeFirstLeaf(tree *merkle.Node, key [32]byte) (*merkle.Node, error) {
	return encode(tree, key, zeroFirstLeaf)
}

// EncodeForgeFirstLeafFirstHash behaves like EncodeForgeFirstLeaf, but also
// recomputes the first pack digest (the parent of leaves 0 and 1) to be
// consistent with the forged leaf. This hides the tamper one level deeper:
// decode no longer reports a LeafDigestMismatch at the leaf itself (leaf 0
// matches its parent digest), but the parent digest no longer matches its
// own parent, so a NodeDigestMismatch surfaces one level up instead.
func EncodeForgeFirstLeafFirstHash(tree *merkle.Node, key [32]byte) (*merkle.Node, error) {
	return encode(tree, key, zeroFirstLeafAndFirstHash)
}

// forgeFunc mutates the plaintext leaves/pack entries before encryption,
// used to simulate adversarial sellers while keeping Encode's framing code
// shared.
type forgeFunc func(leaves [][]byte, pack []merkle.Digest)

func identityLeaves(leaves [][]byte, pack []merkle.Digest) {}

func zeroFirstLeaf(leaves [][]byte, pack []merkle.Digest) {
	if len(leaves) == 0 {
		return
	}
	leaves[0] = make([]byte, len(leaves[0]))
}

func zeroFirstLeafAndFirstHash(leaves [][]byte, pack []merkle.Digest) {
	zeroFirstLeaf(leaves, pack)
	if len(leaves) < 2 || len(pack) == 0 {
		return
	}
	pack[0] = fecrypto.Keccak256(hashLeaf(leaves[0]), hashLeaf(leaves[1]))
}

func hashLeaf(data []byte) []byte {
	d := fecrypto.Keccak256(data)
	return d[:]
}

func encode(tree *merkle.Node, key [32]byte, forge forgeFunc) (*merkle.Node, error) {
	plainLeaves := tree.Leaves()
	leaves := make([][]byte, len(plainLeaves))
	for i, l := range plainLeaves {
		leaves[i] = append([]byte(nil), l.Data...)
	}
	pack := tree.DigestsPack()

	forge(leaves, pack)

	flat := make([][]byte, 0, 2*len(leaves))
	for i, data := range leaves {
		flat = append(flat, fecrypto.Crypt(data, uint64(i), key))
	}
	for j, digest := range pack {
		index := uint64(len(leaves) + j)
		flat = append(flat, fecrypto.Crypt(digest[:], index, key))
	}
	flat = append(flat, sentinel[:])

	return merkle.BuildFromLeaves(flat, fecrypto.Keccak256)
}

// IsEncoded reports whether tree's last leaf is the Fairswap sentinel,
// i.e. whether it is a ciphertext tree produced by Encode rather than a
// plaintext tree.
func IsEncoded(tree *merkle.Node) bool {
	leaves := tree.Leaves()
	if len(leaves) == 0 {
		return false
	}
	last := leaves[len(leaves)-1]
	return len(last.Data) == len(sentinel) && merkle.Digest(mustFixed32(last.Data)) == sentinel
}

func mustFixed32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}

// Decode decrypts every leaf and digest-pack slot of an encoded tree under
// key, then rebuilds the plaintext tree bottom-up, comparing each
// recomputed internal digest against the corresponding decrypted pack
// entry. The fold carries the decrypted pack digest (not the recomputed
// one) up to the next level, so decoding continues past a mismatch and
// surfaces every discrepancy. It returns the plaintext tree rebuilt from
// the decrypted leaves along with every mismatch found.
func Decode(encodedTree *merkle.Node, key [32]byte) (*merkle.Node, []DecodingError, error) {
	if !IsEncoded(encodedTree) {
		return nil, nil, fmt.Errorf("encoding: tree is not a Fairswap-encoded tree")
	}

	flatLeaves := encodedTree.Leaves()
	flatLeaves = flatLeaves[:len(flatLeaves)-1] // drop the sentinel

	// n masked leaves followed by n-1 masked pack digests.
	if len(flatLeaves)%2 != 1 {
		return nil, nil, fmt.Errorf("encoding: encoded tree has an even number of non-sentinel leaves")
	}
	sliceCount := (len(flatLeaves) + 1) / 2

	decodedLeaves := make([][]byte, sliceCount)
	for i := 0; i < sliceCount; i++ {
		decodedLeaves[i] = fecrypto.Crypt(flatLeaves[i].Data, uint64(i), key)
	}
	decodedPack := make([]merkle.Digest, sliceCount-1)
	for j := 0; j < sliceCount-1; j++ {
		index := uint64(sliceCount + j)
		plain := fecrypto.Crypt(flatLeaves[sliceCount+j].Data, index, key)
		copy(decodedPack[j][:], plain)
	}

	type node struct {
		digest merkle.Digest
		data   []byte // non-nil only for leaf-level nodes
		index  int    // original position within its level
	}

	level := make([]node, sliceCount)
	for i, data := range decodedLeaves {
		level[i] = node{digest: fecrypto.Keccak256(data), data: data, index: i}
	}

	var errs []DecodingError
	packIdx := 0
	levelDepth := 0
	for len(level) > 1 {
		next := make([]node, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			left, right := level[i], level[i+1]
			computed := fecrypto.Keccak256(left.digest[:], right.digest[:])
			expected := decodedPack[packIdx]
			packIdx++

			if computed != expected {
				if levelDepth == 0 {
					errs = append(errs, &LeafDigestMismatch{
						IndexIn1:       left.index,
						IndexIn2:       right.index,
						IndexOut:       i / 2,
						In1Data:        left.data,
						In2Data:        right.data,
						ExpectedDigest: expected,
						ActualDigest:   computed,
					})
				} else {
					errs = append(errs, &NodeDigestMismatch{
						IndexIn1:       left.index,
						IndexIn2:       right.index,
						IndexOut:       i / 2,
						In1Digest:      left.digest,
						In2Digest:      right.digest,
						ExpectedDigest: expected,
						ActualDigest:   computed,
					})
				}
			}

			next = append(next, node{digest: expected, index: i / 2})
		}
		level = next
		levelDepth++
	}

	plainLeavesData := make([][]byte, sliceCount)
	for i, d := range decodedLeaves {
		plainLeavesData[i] = d
	}
	tree, err := merkle.BuildFromLeaves(plainLeavesData, fecrypto.Keccak256)
	if err != nil {
		return nil, errs, err
	}
	return tree, errs, nil
}

// DecodeAndVerify wraps Decode with the two checks a buyer needs before it
// can trust a clean fold: that the revealed key actually matches the
// commitment published before the sale, and that the reconstructed root
// actually matches the file root committed to. keyCommit may be nil when
// the key was never committed to independently of the fold itself (the
// one-shot Fairswap contract enforces that match on-chain before it lets
// RevealKey succeed, so the buyer has nothing further to check there).
//
// A failed key-commit check short-circuits before the fold runs at all,
// since nothing decoded under an uncommitted key can be trusted. A failed
// root check only ever surfaces once the fold itself found nothing wrong -
// leaf and node mismatches, being the more specific complaint, always take
// priority over a mismatched root.
func DecodeAndVerify(encodedTree *merkle.Node, key [32]byte, keyCommit *merkle.Digest, expectedRoot merkle.Digest) (*merkle.Node, []DecodingError, error) {
	if keyCommit != nil {
		if actual := fecrypto.Keccak256(key[:]); actual != *keyCommit {
			return nil, []DecodingError{&KeyCommitMismatch{Expected: *keyCommit, Actual: actual}}, nil
		}
	}

	tree, errs, err := Decode(encodedTree, key)
	if err != nil || len(errs) > 0 {
		return tree, errs, err
	}

	if actual := tree.Digest(); actual != expectedRoot {
		flatLeaves := encodedTree.Leaves()
		lastIdx := len(flatLeaves) - 2 // last non-sentinel leaf: the root's pack slot
		if lastIdx < 0 {
			lastIdx = 0
		}
		return tree, []DecodingError{&RootDigestMismatch{
			LeafIndex:      lastIdx,
			CipherLeafData: flatLeaves[lastIdx].Data,
			ExpectedRoot:   expectedRoot,
			ActualRoot:     actual,
		}}, nil
	}

	return tree, nil, nil
}
