package bindings

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// assetHolderETHABIJSON follows go-perun's AssetHolderETH: deposit credits
// a funding id, withdraw pays out against a signed WithdrawalAuth, holdings
// reads a funding id's current balance.
const assetHolderETHABIJSON = `[
 {"type":"function","name":"deposit","inputs":[{"name":"fundingId","type":"bytes32"}],"outputs":[],"stateMutability":"payable"},
 {"type":"function","name":"withdraw","inputs":[
   {"name":"channelId","type":"bytes32"},{"name":"participant","type":"address"},
   {"name":"receiver","type":"address"},{"name":"amount","type":"uint256"},{"name":"sig","type":"bytes"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"holdings","inputs":[{"name":"fundingId","type":"bytes32"}],
   "outputs":[{"type":"uint256"}],"stateMutability":"view"}
]`

var assetHolderETHABI = mustParseABI(assetHolderETHABIJSON)

// AssetHolderETH is a typed handle onto one deployed AssetHolderETH.
type AssetHolderETH struct{ *boundContract }

func NewAssetHolderETH(address common.Address, backend bind.ContractBackend) *AssetHolderETH {
	return &AssetHolderETH{newBoundContract(address, assetHolderETHABI, backend)}
}

func DeployAssetHolderETH(opts *bind.TransactOpts, backend bind.ContractBackend, bytecode []byte) (common.Address, *types.Transaction, *AssetHolderETH, error) {
	address, tx, bc, err := deployBoundContract(opts, assetHolderETHABI, bytecode, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &AssetHolderETH{bc}, nil
}

func (a *AssetHolderETH) Deposit(opts *bind.TransactOpts, fundingID [32]byte) (*types.Transaction, error) {
	return a.transact(opts, "deposit", fundingID)
}

func (a *AssetHolderETH) Withdraw(opts *bind.TransactOpts, channelID [32]byte, participant, receiver common.Address, amount *big.Int, sig []byte) (*types.Transaction, error) {
	return a.transact(opts, "withdraw", channelID, participant, receiver, amount, sig)
}

func (a *AssetHolderETH) Holdings(opts *bind.CallOpts, fundingID [32]byte) (*big.Int, error) {
	var out []any
	if err := a.call(opts, &out, "holdings", fundingID); err != nil {
		return nil, err
	}
	return unpackBigInt(out, 0), nil
}
