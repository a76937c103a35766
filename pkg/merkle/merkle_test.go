package merkle

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDigest is a stand-in DigestFunc for tests that don't need keccak256;
// fecrypto.Keccak256 is exercised directly by the fecrypto and encoding
// packages.
func testDigest(data ...[]byte) Digest {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func testLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte{byte(i)}
	}
	return leaves
}

func TestBuildFromLeaves_RejectsNonPowerOfTwo(t *testing.T) {
	_, err := BuildFromLeaves(testLeaves(3), testDigest)
	require.Error(t, err)
}

func TestBuildFromLeaves_RejectsEmpty(t *testing.T) {
	_, err := BuildFromLeaves(nil, testDigest)
	require.Error(t, err)
}

func TestBuildFromLeaves_SingleLeaf(t *testing.T) {
	tree, err := BuildFromLeaves(testLeaves(1), testDigest)
	require.NoError(t, err)
	require.True(t, tree.IsLeaf())
	require.Equal(t, testDigest([]byte{0}), tree.Digest())
}

func TestProofRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16, 32} {
		tree, err := BuildFromLeaves(testLeaves(n), testDigest)
		require.NoError(t, err)

		leaves := tree.Leaves()
		require.Len(t, leaves, n)

		for i, leaf := range leaves {
			proof, err := tree.Proof(i)
			require.NoError(t, err)
			require.Len(t, proof, tree.Depth())
			require.True(t, ValidateProof(tree.Digest(), leaf.Data, i, proof, testDigest))
		}
	}
}

func TestValidateProof_RejectsWrongData(t *testing.T) {
	tree, err := BuildFromLeaves(testLeaves(8), testDigest)
	require.NoError(t, err)

	proof, err := tree.Proof(3)
	require.NoError(t, err)
	require.False(t, ValidateProof(tree.Digest(), []byte{99}, 3, proof, testDigest))
}

func TestBuildFromBytes(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	tree, err := BuildFromBytes(data, 4, testDigest)
	require.NoError(t, err)
	require.Equal(t, 4, tree.LeafCount())

	_, err = BuildFromBytes(data, 3, testDigest)
	require.Error(t, err, "64 is not divisible by 3")
}

func TestDigestsPackOrdering(t *testing.T) {
	tree, err := BuildFromLeaves(testLeaves(4), testDigest)
	require.NoError(t, err)

	pack := tree.DigestsPack()
	// 4 leaves -> 2 internal nodes at the level above the leaves, then the
	// root: digests-pack orders deepest internal level first, root last.
	require.Len(t, pack, 3)
	require.Equal(t, tree.Digest(), pack[len(pack)-1])
}

func TestMT2ObjRoundTrip(t *testing.T) {
	tree, err := BuildFromLeaves(testLeaves(8), testDigest)
	require.NoError(t, err)

	obj := MT2Obj(tree)
	rebuilt, err := Obj2MT(obj, testDigest)
	require.NoError(t, err)
	require.Equal(t, tree.Digest(), rebuilt.Digest())
	require.Equal(t, tree.Leaves()[0].Data, rebuilt.Leaves()[0].Data)
}
