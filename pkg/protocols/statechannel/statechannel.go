// Package statechannel implements the Perun-style state-channel variant
// of Fairswap: repeated file sales settled off-chain through signed state
// transitions, falling back to the on-chain Adjudicator only when a party
// misbehaves or disappears. Grounded on
// original_source/bfebench/protocols/state_channel_file_sale/strategies/buyer.py
// and file_sale_helper.py.
package statechannel

import (
	"encoding/hex"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

const protocolName = "statechannel-fairswap"

const (
	sellerIndex = 0
	buyerIndex  = 1
)

func init() {
	entry := protocols.Register(protocolName)
	entry.RegisterSeller("faithful", func(c protocols.Context) protocols.Strategy { return &FaithfulSeller{ctx: c} })
	entry.RegisterSeller("grieving", func(c protocols.Context) protocols.Strategy { return &GrievingSeller{ctx: c} })
	entry.RegisterBuyer("faithful", func(c protocols.Context) protocols.Strategy { return &FaithfulBuyer{ctx: c} })
}

// Wire messages, named after the actions they carry: open carries the
// proposed initial signed state, request/initialize exchange the file
// commitment and encoded tree for one iteration, accept/reveal_key/confirm
// drive that iteration's phase transitions, close carries the final
// co-signed state.
type openMessage struct {
	Params             wireParams `json:"params"`
	State              wireState  `json:"state"`
	Signature          string     `json:"signature"`
	AdjudicatorAddress string     `json:"adjudicator_address"`
	AssetHolderAddress string     `json:"asset_holder_address"`
}

// openAckMessage is the buyer's reply to open: its own signature over the
// identical initial state, completing the channel's opening handshake.
type openAckMessage struct {
	Signature string `json:"signature"`
}

type requestMessage struct {
	FileRoot string `json:"file_root"`
}

type initializeMessage struct {
	FileRoot       string `json:"file_root"`
	CiphertextRoot string `json:"ciphertext_root"`
	KeyCommitment  string `json:"key_commitment"`
	Price          string `json:"price"`
	Tree           any    `json:"tree"`
	State          wireState `json:"state"`
	Signature      string `json:"signature"`
}

type acceptMessage struct {
	State     wireState `json:"state"`
	Signature string    `json:"signature"`
}

type revealKeyMessage struct {
	Key       string    `json:"key"`
	State     wireState `json:"state"`
	Signature string    `json:"signature"`
}

type confirmMessage struct {
	State     wireState `json:"state"`
	Signature string    `json:"signature"`
}

type closeMessage struct {
	State     wireState `json:"state"`
	Signature string    `json:"signature"`
}

type wireParams struct {
	ChallengeDuration uint64   `json:"challenge_duration"`
	Nonce             string   `json:"nonce"`
	Seller            string   `json:"seller"`
	Buyer             string   `json:"buyer"`
	App               string   `json:"app"`
}

type wireState struct {
	ChannelID string   `json:"channel_id"`
	Version   uint64   `json:"version"`
	SellerBal string   `json:"seller_balance"`
	BuyerBal  string   `json:"buyer_balance"`
	AppData   string   `json:"app_data"`
	IsFinal   bool     `json:"is_final"`
}

func toWireParams(p channel.Params) wireParams {
	return wireParams{
		ChallengeDuration: p.ChallengeDuration,
		Nonce:             hex.EncodeToString(p.Nonce[:]),
		Seller:            p.Participants[sellerIndex].Hex(),
		Buyer:             p.Participants[buyerIndex].Hex(),
		App:               p.App.Hex(),
	}
}

func fromWireParams(w wireParams) (channel.Params, error) {
	nonceBytes, err := hex.DecodeString(w.Nonce)
	if err != nil || len(nonceBytes) != 32 {
		return channel.Params{}, &bfeerrors.ProtocolRuntimeError{Message: "decode params nonce"}
	}
	var nonce [32]byte
	copy(nonce[:], nonceBytes)
	return channel.Params{
		ChallengeDuration: w.ChallengeDuration,
		Nonce:             nonce,
		Participants:      [2]common.Address{common.HexToAddress(w.Seller), common.HexToAddress(w.Buyer)},
		App:               common.HexToAddress(w.App),
		LedgerChannel:     true,
	}, nil
}

func toWireState(s channel.State) wireState {
	return wireState{
		ChannelID: s.ChannelID.Hex(),
		Version:   s.Version,
		SellerBal: s.Outcome.Balances[0][sellerIndex].ToBig().String(),
		BuyerBal:  s.Outcome.Balances[0][buyerIndex].ToBig().String(),
		AppData:   hex.EncodeToString(s.AppData),
		IsFinal:   s.IsFinal,
	}
}

func fromWireState(w wireState, asset common.Address) (channel.State, error) {
	appData, err := hex.DecodeString(w.AppData)
	if err != nil {
		return channel.State{}, &bfeerrors.ProtocolRuntimeError{Message: "decode app data"}
	}
	sellerBal, ok := new(big.Int).SetString(w.SellerBal, 10)
	if !ok {
		return channel.State{}, &bfeerrors.ProtocolRuntimeError{Message: "decode seller balance"}
	}
	buyerBal, ok := new(big.Int).SetString(w.BuyerBal, 10)
	if !ok {
		return channel.State{}, &bfeerrors.ProtocolRuntimeError{Message: "decode buyer balance"}
	}
	return channel.State{
		ChannelID: common.HexToHash(w.ChannelID),
		Version:   w.Version,
		Outcome: channel.Allocation{
			Assets:   []common.Address{asset},
			Balances: [][]*uint256.Int{{uint256.MustFromBig(sellerBal), uint256.MustFromBig(buyerBal)}},
		},
		AppData: appData,
		IsFinal: w.IsFinal,
	}, nil
}

func hexDigest(d merkle.Digest) string {
	return "0x" + hex.EncodeToString(d[:])
}

func decodeHash(s string) common.Hash {
	return common.HexToHash(s)
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func sliceCountFor(fileLen int) int {
	n := 1
	for n*32 < fileLen {
		n *= 2
	}
	if n < 2 {
		n = 2
	}
	return n
}

func weiToEth(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	eth, _ := new(big.Float).Quo(f, big.NewFloat(1e18)).Float64()
	return eth
}

func iterationsFor(params map[string]string) int {
	if v, ok := params["iterations"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

func challengeDurationFor(timeout time.Duration) uint64 {
	return uint64(timeout.Seconds())
}

func parseHexAddress(s string) common.Address {
	return common.HexToAddress(strings.TrimSpace(s))
}
