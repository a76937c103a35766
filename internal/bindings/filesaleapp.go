package bindings

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fileSaleAppABIJSON is the Perun "app" contract the Adjudicator calls to
// validate a FileSale channel transition, plus the three complaint entry
// points a buyer's dispute strategy calls when a force-executed KEY_REVEALED
// state turns out to encode a forged ciphertext tree.
const fileSaleAppABIJSON = `[
 {"type":"function","name":"validTransition","inputs":[
   {"name":"params","type":"bytes"},{"name":"from","type":"bytes"},{"name":"to","type":"bytes"},
   {"name":"actorIdx","type":"uint256"}],"outputs":[],"stateMutability":"view"},
 {"type":"function","name":"complainAboutRoot","inputs":[
   {"name":"channelId","type":"bytes32"},{"name":"proof","type":"bytes32[]"},
   {"name":"leafIndex","type":"uint256"},{"name":"leafData","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutLeaf","inputs":[
   {"name":"channelId","type":"bytes32"},{"name":"proof","type":"bytes32[]"},{"name":"indexOut","type":"uint256"},
   {"name":"indexIn1","type":"uint256"},{"name":"indexIn2","type":"uint256"},
   {"name":"leafData1","type":"bytes32"},{"name":"leafData2","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"complainAboutNode","inputs":[
   {"name":"channelId","type":"bytes32"},{"name":"proof","type":"bytes32[]"},{"name":"indexOut","type":"uint256"},
   {"name":"indexIn1","type":"uint256"},{"name":"indexIn2","type":"uint256"},
   {"name":"digestOut","type":"bytes32"},{"name":"digestIn1","type":"bytes32"},{"name":"digestIn2","type":"bytes32"}],
   "outputs":[],"stateMutability":"nonpayable"}
]`

var fileSaleAppABI = mustParseABI(fileSaleAppABIJSON)

// FileSaleApp is a typed handle onto the deployed app-logic contract the
// Adjudicator delegates validTransition checks to.
type FileSaleApp struct{ *boundContract }

func NewFileSaleApp(address common.Address, backend bind.ContractBackend) *FileSaleApp {
	return &FileSaleApp{newBoundContract(address, fileSaleAppABI, backend)}
}

func DeployFileSaleApp(opts *bind.TransactOpts, backend bind.ContractBackend, bytecode []byte) (common.Address, *types.Transaction, *FileSaleApp, error) {
	address, tx, bc, err := deployBoundContract(opts, fileSaleAppABI, bytecode, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &FileSaleApp{bc}, nil
}

func (f *FileSaleApp) ComplainAboutRoot(opts *bind.TransactOpts, channelID [32]byte, proof [][32]byte, leafIndex *big.Int, leafData [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutRoot", channelID, proof, leafIndex, leafData)
}

func (f *FileSaleApp) ComplainAboutLeaf(opts *bind.TransactOpts, channelID [32]byte, proof [][32]byte, indexOut, indexIn1, indexIn2 *big.Int, leafData1, leafData2 [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutLeaf", channelID, proof, indexOut, indexIn1, indexIn2, leafData1, leafData2)
}

func (f *FileSaleApp) ComplainAboutNode(opts *bind.TransactOpts, channelID [32]byte, proof [][32]byte, indexOut, indexIn1, indexIn2 *big.Int, digestOut, digestIn1, digestIn2 [32]byte) (*types.Transaction, error) {
	return f.transact(opts, "complainAboutNode", channelID, proof, indexOut, indexIn1, indexIn2, digestOut, digestIn1, digestIn2)
}
