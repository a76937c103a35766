package bindings

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fairswapReusableABIJSON mirrors Fairswap's one-shot surface but keys every
// call by a session id (one contract serving many seller/buyer pairs,
// session_id = keccak(seller, buyer, fileRoot)) instead of deploying one
// contract per trade.
const fairswapReusableABIJSON = `[
 {"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"open","inputs":[
   {"name":"sessionId","type":"bytes32"},
   {"name":"receiver","type":"address"},
   {"name":"price","type":"uint256"},
   {"name":"keyCommit","type":"bytes32"},
   {"name":"ciphertextRoot","type":"bytes32"},
   {"name":"fileRoot","type":"bytes32"},
   {"name":"timeout","type":"uint256"}],"outputs":[],"stateMutability":"payable"},
 {"type":"function","name":"accept","inputs":[{"name":"sessionId","type":"bytes32"}],"outputs":[],"stateMutability":"payable"},
 {"type":"function","name":"revealKey","inputs":[{"name":"sessionId","type":"bytes32"},{"name":"key","type":"bytes32"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"refund","inputs":[{"name":"sessionId","type":"bytes32"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"noComplain","inputs":[{"name":"sessionId","type":"bytes32"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutRoot","inputs":[
   {"name":"sessionId","type":"bytes32"},{"name":"proof","type":"bytes32[]"},
   {"name":"leafIndex","type":"uint256"},{"name":"leafData","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutLeaf","inputs":[
   {"name":"sessionId","type":"bytes32"},{"name":"proof","type":"bytes32[]"},{"name":"indexOut","type":"uint256"},
   {"name":"indexIn1","type":"uint256"},{"name":"indexIn2","type":"uint256"},
   {"name":"leafData1","type":"bytes32"},{"name":"leafData2","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutNode","inputs":[
   {"name":"sessionId","type":"bytes32"},{"name":"proof","type":"bytes32[]"},{"name":"indexOut","type":"uint256"},
   {"name":"indexIn1","type":"uint256"},{"name":"indexIn2","type":"uint256"},
   {"name":"digestOut","type":"bytes32"},{"name":"digestIn1","type":"bytes32"},{"name":"digestIn2","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"phaseOf","inputs":[{"name":"sessionId","type":"bytes32"}],"outputs":[{"type":"uint8"}],"stateMutability":"view"},
 {"type":"function","name":"keyOf","inputs":[{"name":"sessionId","type":"bytes32"}],"outputs":[{"type":"bytes32"}],"stateMutability":"view"}
]`

var fairswapReusableABI = mustParseABI(fairswapReusableABIJSON)

// FairswapReusable is a typed handle onto one deployed FairswapReusable
// contract, which multiplexes many concurrent sessions.
type FairswapReusable struct{ *boundContract }

func NewFairswapReusable(address common.Address, backend bind.ContractBackend) *FairswapReusable {
	return &FairswapReusable{newBoundContract(address, fairswapReusableABI, backend)}
}

func DeployFairswapReusable(opts *bind.TransactOpts, backend bind.ContractBackend, bytecode []byte) (common.Address, *types.Transaction, *FairswapReusable, error) {
	address, tx, bc, err := deployBoundContract(opts, fairswapReusableABI, bytecode, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &FairswapReusable{bc}, nil
}

func (f *FairswapReusable) Open(opts *bind.TransactOpts, sessionID [32]byte, receiver common.Address, price *big.Int, keyCommit, ciphertextRoot, fileRoot [32]byte, timeout *big.Int) (*types.Transaction, error) {
	return f.transact(opts, "open", sessionID, receiver, price, keyCommit, ciphertextRoot, fileRoot, timeout)
}

func (f *FairswapReusable) Accept(opts *bind.TransactOpts, sessionID [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "accept", sessionID)
}

func (f *FairswapReusable) RevealKey(opts *bind.TransactOpts, sessionID [32]byte, key [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "revealKey", sessionID, key)
}

func (f *FairswapReusable) Refund(opts *bind.TransactOpts, sessionID [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "refund", sessionID)
}

func (f *FairswapReusable) NoComplain(opts *bind.TransactOpts, sessionID [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "noComplain", sessionID)
}

func (f *FairswapReusable) ComplainAboutRoot(opts *bind.TransactOpts, sessionID [32]byte, proof [][32]byte, leafIndex *big.Int, leafData [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutRoot", sessionID, proof, leafIndex, leafData)
}

func (f *FairswapReusable) ComplainAboutLeaf(opts *bind.TransactOpts, sessionID [32]byte, proof [][32]byte, indexOut, indexIn1, indexIn2 *big.Int, leafData1, leafData2 [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutLeaf", sessionID, proof, indexOut, indexIn1, indexIn2, leafData1, leafData2)
}

func (f *FairswapReusable) ComplainAboutNode(opts *bind.TransactOpts, sessionID [32]byte, proof [][32]byte, indexOut, indexIn1, indexIn2 *big.Int, digestOut, digestIn1, digestIn2 [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutNode", sessionID, proof, indexOut, indexIn1, indexIn2, digestOut, digestIn1, digestIn2)
}

func (f *FairswapReusable) PhaseOf(opts *bind.CallOpts, sessionID [32]byte) (uint8, error) {
	var out []any
	if err := f.call(opts, &out, "phaseOf", sessionID); err != nil {
		return 0, err
	}
	return unpackUint8(out, 0), nil
}

func (f *FairswapReusable) KeyOf(opts *bind.CallOpts, sessionID [32]byte) ([32]byte, error) {
	var out []any
	if err := f.call(opts, &out, "keyOf", sessionID); err != nil {
		return [32]byte{}, err
	}
	return unpackBytes32(out, 0), nil
}
