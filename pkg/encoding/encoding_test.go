package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
)

func buildPlainTree(t *testing.T, sliceCount int) *merkle.Node {
	t.Helper()
	leaves := make([][]byte, sliceCount)
	for i := range leaves {
		leaves[i] = []byte{byte(i), byte(i + 1), byte(i + 2)}
	}
	tree, err := merkle.BuildFromLeaves(leaves, fecrypto.Keccak256)
	require.NoError(t, err)
	return tree
}

func testKey() [32]byte {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcde"))
	return key
}

func TestEncodeDecodeFaithful(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := Encode(plain, key)
	require.NoError(t, err)
	require.True(t, IsEncoded(encoded))

	decoded, errs, err := Decode(encoded, key)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, plain.Digest(), decoded.Digest())
}

func TestEncodeForgeFirstLeaf_SurfacesLeafMismatch(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := EncodeForgeFirstLeaf(plain, key)
	require.NoError(t, err)

	_, errs, err := Decode(encoded, key)
	require.NoError(t, err)
	require.Len(t, errs, 1)

	kind, last := ComplaintFor(errs)
	require.Equal(t, ComplaintLeaf, kind)
	leafErr, ok := last.(*LeafDigestMismatch)
	require.True(t, ok)
	require.Equal(t, 0, leafErr.IndexIn1)
}

func TestEncodeForgeFirstLeafFirstHash_SurfacesNodeMismatchOneLevelUp(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := EncodeForgeFirstLeafFirstHash(plain, key)
	require.NoError(t, err)

	_, errs, err := Decode(encoded, key)
	require.NoError(t, err)
	require.Len(t, errs, 1)

	for _, e := range errs {
		_, isLeaf := e.(*LeafDigestMismatch)
		require.False(t, isLeaf, "forged first hash should hide the leaf-level mismatch")
	}

	kind, _ := ComplaintFor(errs)
	require.Equal(t, ComplaintNode, kind)
}

func TestIsEncoded_FalseForPlainTree(t *testing.T) {
	plain := buildPlainTree(t, 4)
	require.False(t, IsEncoded(plain))
}

func TestDecodeAndVerify_KeyCommitMismatchShortCircuitsBeforeFold(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := Encode(plain, key)
	require.NoError(t, err)

	var wrongCommit merkle.Digest
	copy(wrongCommit[:], []byte("not-the-real-key-commitment-abc"))

	_, errs, err := DecodeAndVerify(encoded, key, &wrongCommit, plain.Digest())
	require.NoError(t, err)
	require.Len(t, errs, 1)

	kind, last := ComplaintFor(errs)
	require.Equal(t, ComplaintKey, kind)
	_, ok := last.(*KeyCommitMismatch)
	require.True(t, ok)
}

func TestDecodeAndVerify_RootMismatchOnlySurfacesAfterCleanFold(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := Encode(plain, key)
	require.NoError(t, err)

	keyCommit := fecrypto.Keccak256(key[:])
	var decoyRoot merkle.Digest
	copy(decoyRoot[:], []byte("some-other-files-expected-rootA"))

	_, errs, err := DecodeAndVerify(encoded, key, &keyCommit, decoyRoot)
	require.NoError(t, err)
	require.Len(t, errs, 1)

	kind, last := ComplaintFor(errs)
	require.Equal(t, ComplaintRoot, kind)
	rootErr, ok := last.(*RootDigestMismatch)
	require.True(t, ok)
	require.Equal(t, decoyRoot, rootErr.ExpectedRoot)
	require.Equal(t, plain.Digest(), rootErr.ActualRoot)
}

func TestDecodeAndVerify_LeafMismatchTakesPriorityOverRootCheck(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := EncodeForgeFirstLeaf(plain, key)
	require.NoError(t, err)

	keyCommit := fecrypto.Keccak256(key[:])
	var decoyRoot merkle.Digest
	copy(decoyRoot[:], []byte("some-other-files-expected-rootA"))

	// A forged leaf never reconstructs a valid tree in the first place, so
	// the fold's own mismatch must win over the root check even though the
	// root would also fail to match.
	_, errs, err := DecodeAndVerify(encoded, key, &keyCommit, decoyRoot)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	kind, _ := ComplaintFor(errs)
	require.Equal(t, ComplaintLeaf, kind)
}

func TestDecodeAndVerify_CleanWhenEverythingMatches(t *testing.T) {
	plain := buildPlainTree(t, 8)
	key := testKey()

	encoded, err := Encode(plain, key)
	require.NoError(t, err)
	keyCommit := fecrypto.Keccak256(key[:])

	_, errs, err := DecodeAndVerify(encoded, key, &keyCommit, plain.Digest())
	require.NoError(t, err)
	require.Empty(t, errs)
}
