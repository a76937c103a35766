package bindings

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const fairswapABIJSON = `[
 {"type":"constructor","inputs":[
   {"name":"receiver","type":"address"},
   {"name":"price","type":"uint256"},
   {"name":"keyCommit","type":"bytes32"},
   {"name":"ciphertextRoot","type":"bytes32"},
   {"name":"fileRoot","type":"bytes32"},
   {"name":"timeout","type":"uint256"}],"stateMutability":"payable"},
 {"type":"function","name":"accept","inputs":[],"outputs":[],"stateMutability":"payable"},
 {"type":"function","name":"revealKey","inputs":[{"name":"key","type":"bytes32"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"refund","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"noComplain","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutRoot","inputs":[
   {"name":"proof","type":"bytes32[]"},{"name":"leafIndex","type":"uint256"},{"name":"leafData","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutLeaf","inputs":[
   {"name":"proof","type":"bytes32[]"},{"name":"indexOut","type":"uint256"},
   {"name":"indexIn1","type":"uint256"},{"name":"indexIn2","type":"uint256"},
   {"name":"leafData1","type":"bytes32"},{"name":"leafData2","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutNode","inputs":[
   {"name":"proof","type":"bytes32[]"},{"name":"indexOut","type":"uint256"},
   {"name":"indexIn1","type":"uint256"},{"name":"indexIn2","type":"uint256"},
   {"name":"digestOut","type":"bytes32"},{"name":"digestIn1","type":"bytes32"},{"name":"digestIn2","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"phase","inputs":[],"outputs":[{"type":"uint8"}],"stateMutability":"view"},
 {"type":"function","name":"key","inputs":[],"outputs":[{"type":"bytes32"}],"stateMutability":"view"},
 {"type":"function","name":"fileRoot","inputs":[],"outputs":[{"type":"bytes32"}],"stateMutability":"view"},
 {"type":"function","name":"ciphertextRoot","inputs":[],"outputs":[{"type":"bytes32"}],"stateMutability":"view"},
 {"type":"function","name":"timeout","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view"}
]`

var fairswapABI = mustParseABI(fairswapABIJSON)

// Fairswap is a typed handle onto one deployed one-shot Fairswap contract.
type Fairswap struct{ *boundContract }

// NewFairswap binds to an already-deployed Fairswap contract at address.
func NewFairswap(address common.Address, backend bind.ContractBackend) *Fairswap {
	return &Fairswap{newBoundContract(address, fairswapABI, backend)}
}

// DeployFairswap deploys a new one-shot Fairswap contract.
func DeployFairswap(opts *bind.TransactOpts, backend bind.ContractBackend, bytecode []byte, receiver common.Address, price *big.Int, keyCommit, ciphertextRoot, fileRoot [32]byte, timeout *big.Int) (common.Address, *types.Transaction, *Fairswap, error) {
	address, tx, bc, err := deployBoundContract(opts, fairswapABI, bytecode, backend, receiver, price, keyCommit, ciphertextRoot, fileRoot, timeout)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Fairswap{bc}, nil
}

func (f *Fairswap) Accept(opts *bind.TransactOpts) (*types.Transaction, error) {
	return f.transact(opts, "accept")
}

func (f *Fairswap) RevealKey(opts *bind.TransactOpts, key [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "revealKey", key)
}

func (f *Fairswap) Refund(opts *bind.TransactOpts) (*types.Transaction, error) {
	return f.transact(opts, "refund")
}

func (f *Fairswap) NoComplain(opts *bind.TransactOpts) (*types.Transaction, error) {
	return f.transact(opts, "noComplain")
}

func (f *Fairswap) ComplainAboutRoot(opts *bind.TransactOpts, proof [][32]byte, leafIndex *big.Int, leafData [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutRoot", proof, leafIndex, leafData)
}

func (f *Fairswap) ComplainAboutLeaf(opts *bind.TransactOpts, proof [][32]byte, indexOut, indexIn1, indexIn2 *big.Int, leafData1, leafData2 [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutLeaf", proof, indexOut, indexIn1, indexIn2, leafData1, leafData2)
}

func (f *Fairswap) ComplainAboutNode(opts *bind.TransactOpts, proof [][32]byte, indexOut, indexIn1, indexIn2 *big.Int, digestOut, digestIn1, digestIn2 [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutNode", proof, indexOut, indexIn1, indexIn2, digestOut, digestIn1, digestIn2)
}

func (f *Fairswap) Phase(opts *bind.CallOpts) (uint8, error) {
	var out []any
	if err := f.call(opts, &out, "phase"); err != nil {
		return 0, err
	}
	return unpackUint8(out, 0), nil
}

func (f *Fairswap) Key(opts *bind.CallOpts) ([32]byte, error) {
	var out []any
	if err := f.call(opts, &out, "key"); err != nil {
		return [32]byte{}, err
	}
	return unpackBytes32(out, 0), nil
}

func (f *Fairswap) FileRoot(opts *bind.CallOpts) ([32]byte, error) {
	var out []any
	if err := f.call(opts, &out, "fileRoot"); err != nil {
		return [32]byte{}, err
	}
	return unpackBytes32(out, 0), nil
}

func (f *Fairswap) CiphertextRoot(opts *bind.CallOpts) ([32]byte, error) {
	var out []any
	if err := f.call(opts, &out, "ciphertextRoot"); err != nil {
		return [32]byte{}, err
	}
	return unpackBytes32(out, 0), nil
}

func (f *Fairswap) Timeout(opts *bind.CallOpts) (*big.Int, error) {
	var out []any
	if err := f.call(opts, &out, "timeout"); err != nil {
		return nil, err
	}
	return unpackBigInt(out, 0), nil
}
