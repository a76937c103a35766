package fairswap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/fairswap-bench/pkg/encoding"
	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
)

func buildFileTree(t *testing.T, sliceCount int) *merkle.Node {
	t.Helper()
	leaves := make([][]byte, sliceCount)
	for i := range leaves {
		leaves[i] = []byte{byte(i), byte(i + 7), byte(i + 13)}
	}
	tree, err := merkle.BuildFromLeaves(leaves, fecrypto.Keccak256)
	require.NoError(t, err)
	return tree
}

// TestForgeRoot_BuyerComplainsAboutRootNotLeafOrNode exercises the
// root-forging seller strategy through the same decode-then-complain path
// FaithfulBuyer takes. RootForging's ciphertext is internally consistent -
// only the claimed file root is a lie - so this must surface as a
// ComplaintRoot, never the generic leaf/node mismatches the other forging
// strategies produce.
func TestForgeRoot_BuyerComplainsAboutRootNotLeafOrNode(t *testing.T) {
	fileTree := buildFileTree(t, 8)
	var key [32]byte
	require.NoError(t, fillRandom(key[:]))

	encodedTree, claimedRoot, err := forgeRoot(fileTree, key)
	require.NoError(t, err)
	require.True(t, encoding.IsEncoded(encodedTree))
	require.NotEqual(t, fileTree.Digest(), claimedRoot)

	keyCommit := fecrypto.Keccak256(key[:])
	decodedTree, decodeErrs, err := encoding.DecodeAndVerify(encodedTree, key, &keyCommit, claimedRoot)
	require.NoError(t, err)
	require.Len(t, decodeErrs, 1)

	kind, complainErr := encoding.ComplaintFor(decodeErrs)
	require.Equal(t, encoding.ComplaintRoot, kind)
	rootErr, ok := complainErr.(*encoding.RootDigestMismatch)
	require.True(t, ok)
	require.Equal(t, fileTree.Digest(), decodedTree.Digest(), "the ciphertext decodes to the real file, just not the claimed one")
	require.Equal(t, fileTree.Digest(), rootErr.ActualRoot)
	require.Equal(t, claimedRoot, rootErr.ExpectedRoot)

	proof, err := encodedTree.Proof(rootErr.LeafIndex)
	require.NoError(t, err)
	require.True(t, merkle.ValidateProof(encodedTree.Digest(), rootErr.CipherLeafData, rootErr.LeafIndex, proof, fecrypto.Keccak256),
		"the root complaint's proof must verify against the delivered ciphertext tree")
}

// TestForgeFaithful_NeverComplains is the control: an honest seller's
// claimed root always matches what the ciphertext actually decodes to.
func TestForgeFaithful_NeverComplains(t *testing.T) {
	fileTree := buildFileTree(t, 8)
	var key [32]byte
	require.NoError(t, fillRandom(key[:]))

	encodedTree, claimedRoot, err := forgeFaithful(fileTree, key)
	require.NoError(t, err)

	keyCommit := fecrypto.Keccak256(key[:])
	_, decodeErrs, err := encoding.DecodeAndVerify(encodedTree, key, &keyCommit, claimedRoot)
	require.NoError(t, err)
	require.Empty(t, decodeErrs)
}
