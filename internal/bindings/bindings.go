// Package bindings holds hand-authored Go contract bindings for the
// on-chain surface this benchmark drives: the Fairswap family, the Perun
// Adjudicator/AssetHolder pair, and the FileSale app logic contract.
// Contract compilation is out of scope here; these bindings are written in
// the shape abigen would produce against already-compiled
// ABI+bytecode, following Layr-Labs-eigenx-kms-go's generated
// middleware bindings (NewXxx(address, backend), DeployXxx(opts,
// backend, ...), typed method wrappers over bind.BoundContract).
package bindings

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// boundContract is the common shape every binding in this package embeds:
// a parsed ABI plus a bind.BoundContract wired to one deployed address.
type boundContract struct {
	address common.Address
	abi     abi.ABI
	bc      *bind.BoundContract
}

func newBoundContract(address common.Address, parsedABI abi.ABI, backend bind.ContractBackend) *boundContract {
	bc := bind.NewBoundContract(address, parsedABI, backend, backend, backend)
	return &boundContract{address: address, abi: parsedABI, bc: bc}
}

func deployBoundContract(opts *bind.TransactOpts, parsedABI abi.ABI, bytecode []byte, backend bind.ContractBackend, params ...any) (common.Address, *types.Transaction, *boundContract, error) {
	address, tx, bc, err := bind.DeployContract(opts, parsedABI, bytecode, backend, params...)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &boundContract{address: address, abi: parsedABI, bc: bc}, nil
}

func (b *boundContract) Address() common.Address { return b.address }

func (b *boundContract) transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error) {
	return b.bc.Transact(opts, method, params...)
}

func (b *boundContract) call(opts *bind.CallOpts, out *[]any, method string, params ...any) error {
	return b.bc.Call(opts, out, method, params...)
}

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic("bindings: invalid ABI json: " + err.Error())
	}
	return parsed
}

// unpackUint8/unpackBytes32/unpackBigInt/unpackAddress/unpackBool pull a
// single return value out of the []any a Call populates, panicking on a
// type mismatch: a mismatch here means the ABI json above drifted from the
// Go call site, a programmer error rather than a runtime condition.
func unpackUint8(out []any, i int) uint8     { return out[i].(uint8) }
func unpackBytes32(out []any, i int) [32]byte { return out[i].([32]byte) }
func unpackBigInt(out []any, i int) *big.Int  { return out[i].(*big.Int) }
func unpackAddress(out []any, i int) common.Address { return out[i].(common.Address) }
func unpackBool(out []any, i int) bool        { return out[i].(bool) }
