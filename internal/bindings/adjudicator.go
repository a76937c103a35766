package bindings

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// adjudicatorABIJSON follows go-perun's Adjudicator surface (register,
// progress, conclude, concludeFinal, channelID, disputes) as used by
// other_examples' stanta-go-perun backend, narrowed to what
// pkg/protocols/statechannel drives.
const adjudicatorABIJSON = `[
 {"type":"function","name":"register","inputs":[
   {"name":"params","type":"bytes"},{"name":"state","type":"bytes"},
   {"name":"sigs","type":"bytes[]"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"progress","inputs":[
   {"name":"params","type":"bytes"},{"name":"oldState","type":"bytes"},{"name":"newState","type":"bytes"},
   {"name":"actorIdx","type":"uint256"},{"name":"sig","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"conclude","inputs":[
   {"name":"params","type":"bytes"},{"name":"state","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"concludeFinal","inputs":[
   {"name":"params","type":"bytes"},{"name":"state","type":"bytes"},{"name":"sigs","type":"bytes[]"}],
   "outputs":[],"stateMutability":"nonpayable"},
 {"type":"function","name":"disputes","inputs":[{"name":"channelId","type":"bytes32"}],
   "outputs":[{"name":"version","type":"uint64"},{"name":"phase","type":"uint8"},{"name":"timeout","type":"uint256"}],
   "stateMutability":"view"}
]`

var adjudicatorABI = mustParseABI(adjudicatorABIJSON)

// DisputePhase mirrors the Adjudicator's on-chain dispute phase enum:
// DISPUTE, FORCEEXEC, CONCLUDED.
type DisputePhase uint8

const (
	DisputePhaseDispute DisputePhase = iota
	DisputePhaseForceExec
	DisputePhaseConcluded
)

// Dispute is the decoded return value of Adjudicator.disputes.
type Dispute struct {
	Version uint64
	Phase   DisputePhase
	Timeout *big.Int
}

// Adjudicator is a typed handle onto one deployed Adjudicator contract.
type Adjudicator struct{ *boundContract }

func NewAdjudicator(address common.Address, backend bind.ContractBackend) *Adjudicator {
	return &Adjudicator{newBoundContract(address, adjudicatorABI, backend)}
}

func DeployAdjudicator(opts *bind.TransactOpts, backend bind.ContractBackend, bytecode []byte) (common.Address, *types.Transaction, *Adjudicator, error) {
	address, tx, bc, err := deployBoundContract(opts, adjudicatorABI, bytecode, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Adjudicator{bc}, nil
}

func (a *Adjudicator) Register(opts *bind.TransactOpts, params, state []byte, sigs [][]byte) (*types.Transaction, error) {
	return a.transact(opts, "register", params, state, sigs)
}

func (a *Adjudicator) Progress(opts *bind.TransactOpts, params, oldState, newState []byte, actorIdx *big.Int, sig []byte) (*types.Transaction, error) {
	return a.transact(opts, "progress", params, oldState, newState, actorIdx, sig)
}

func (a *Adjudicator) Conclude(opts *bind.TransactOpts, params, state []byte) (*types.Transaction, error) {
	return a.transact(opts, "conclude", params, state)
}

func (a *Adjudicator) ConcludeFinal(opts *bind.TransactOpts, params, state []byte, sigs [][]byte) (*types.Transaction, error) {
	return a.transact(opts, "concludeFinal", params, state, sigs)
}

func (a *Adjudicator) Disputes(opts *bind.CallOpts, channelID [32]byte) (Dispute, error) {
	var out []any
	if err := a.call(opts, &out, "disputes", channelID); err != nil {
		return Dispute{}, err
	}
	return Dispute{
		Version: out[0].(uint64),
		Phase:   DisputePhase(unpackUint8(out, 1)),
		Timeout: unpackBigInt(out, 2),
	}, nil
}
