package encoding

import (
	"fmt"

	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
)

// DecodingError is a single digest mismatch discovered while decoding a
// ciphertext tree. Implementations carry everything an on-chain complaint
// needs: the two inputs that were combined, the node that disagreed with
// them, and both digests so a caller can log or assert without redoing the
// hashing.
type DecodingError interface {
	error
	// complaint is unexported so only this package can satisfy the
	// interface; callers switch on the concrete *LeafDigestMismatch /
	// *NodeDigestMismatch types instead.
	complaint()
}

// LeafDigestMismatch means the two leaves at IndexIn1/IndexIn2 don't hash
// to the pack digest the seller committed to for their parent. This is the
// lowest possible mismatch: the dispute is resolved with
// complainAboutLeaf, passing the raw leaf bytes.
type LeafDigestMismatch struct {
	IndexIn1, IndexIn2 int
	IndexOut           int
	In1Data, In2Data   []byte
	ExpectedDigest     merkle.Digest
	ActualDigest       merkle.Digest
}

func (e *LeafDigestMismatch) Error() string {
	return fmt.Sprintf("encoding: leaf digest mismatch combining leaves %d,%d: expected %x got %x",
		e.IndexIn1, e.IndexIn2, e.ExpectedDigest, e.ActualDigest)
}
func (e *LeafDigestMismatch) complaint() {}

// NodeDigestMismatch means two internal-node digests at IndexIn1/IndexIn2
// (one level above the leaves or higher) don't hash to the pack digest
// committed to for their parent. Resolved with complainAboutNode, passing
// digests rather than raw data.
type NodeDigestMismatch struct {
	IndexIn1, IndexIn2   int
	IndexOut             int
	In1Digest, In2Digest merkle.Digest
	ExpectedDigest       merkle.Digest
	ActualDigest         merkle.Digest
}

func (e *NodeDigestMismatch) Error() string {
	return fmt.Sprintf("encoding: node digest mismatch combining nodes %d,%d: expected %x got %x",
		e.IndexIn1, e.IndexIn2, e.ExpectedDigest, e.ActualDigest)
}
func (e *NodeDigestMismatch) complaint() {}

// KeyCommitMismatch means the revealed key doesn't hash to the commitment
// published before the sale. Nothing decoded under it can be trusted, so
// this short-circuits before any leaf or node is even touched.
type KeyCommitMismatch struct {
	Expected merkle.Digest
	Actual   merkle.Digest
}

func (e *KeyCommitMismatch) Error() string {
	return fmt.Sprintf("encoding: revealed key commits to %x, expected %x", e.Actual, e.Expected)
}
func (e *KeyCommitMismatch) complaint() {}

// RootDigestMismatch means every leaf and node in the fold checked out
// against its trusted parent digest, but the reconstructed plaintext root
// still doesn't match the file root committed to before the sale: the
// seller delivered an internally-consistent tree that simply isn't the one
// they promised. LeafIndex and CipherLeafData address the encoded tree's
// final pack slot, the one holding the root digest, for the on-chain proof.
type RootDigestMismatch struct {
	LeafIndex      int
	CipherLeafData []byte
	ExpectedRoot   merkle.Digest
	ActualRoot     merkle.Digest
}

func (e *RootDigestMismatch) Error() string {
	return fmt.Sprintf("encoding: root digest mismatch: expected %x got %x", e.ExpectedRoot, e.ActualRoot)
}
func (e *RootDigestMismatch) complaint() {}

// ComplaintKind identifies which on-chain complaint method a
// DecodingError should be routed to.
type ComplaintKind int

const (
	ComplaintNone ComplaintKind = iota
	ComplaintLeaf
	ComplaintNode
	ComplaintKey
	ComplaintRoot
)

// ComplaintFor picks which error out of a Decode/DecodeAndVerify result
// should drive the on-chain complaint: the reference buyer always
// complains about the last error accumulated during the bottom-up fold,
// which is also the deepest-surviving disagreement once shallower ones
// have been overwritten by their trusted parent digest. A key-commit or
// root-digest mismatch is always the sole entry in errs, since both
// short-circuit before or after the fold rather than accumulating
// alongside leaf/node mismatches.
func ComplaintFor(errs []DecodingError) (ComplaintKind, DecodingError) {
	if len(errs) == 0 {
		return ComplaintNone, nil
	}
	last := errs[len(errs)-1]
	switch last.(type) {
	case *LeafDigestMismatch:
		return ComplaintLeaf, last
	case *NodeDigestMismatch:
		return ComplaintNode, last
	case *KeyCommitMismatch:
		return ComplaintKey, last
	case *RootDigestMismatch:
		return ComplaintRoot, last
	default:
		return ComplaintNone, nil
	}
}
