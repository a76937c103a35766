// Package fairswap implements the one-shot Fairswap protocol's seller and
// buyer strategies: a faithful seller/buyer pair, and three adversarial
// seller variants (RootForging claims a file root its ciphertext does not
// decode to; LeafForging and NodeForging forge the ciphertext tree),
// grounded on
// original_source/bfebench/protocols/fairswap/strategies.py.
package fairswap

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/fairswap-bench/internal/bindings"
	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

const protocolName = "fairswap"

// phase mirrors the Fairswap contract's Phase enum.
const (
	phaseIdle uint8 = iota
	phaseAccepted
	phaseKeyRevealed
	phaseComplaintSuccessful
)

func init() {
	entry := protocols.Register(protocolName)
	entry.RegisterSeller("faithful", func(c protocols.Context) protocols.Strategy { return &FaithfulSeller{ctx: c} })
	entry.RegisterSeller("root-forging", func(c protocols.Context) protocols.Strategy { return &forgingSeller{ctx: c, forge: forgeRoot} })
	entry.RegisterSeller("leaf-forging", func(c protocols.Context) protocols.Strategy { return &forgingSeller{ctx: c, forge: forgeLeaf} })
	entry.RegisterSeller("node-forging", func(c protocols.Context) protocols.Strategy { return &forgingSeller{ctx: c, forge: forgeNode} })
	entry.RegisterBuyer("faithful", func(c protocols.Context) protocols.Strategy { return &FaithfulBuyer{ctx: c} })
}

// initMessage is what the seller sends the buyer once the contract is
// deployed: the plaintext/ciphertext roots match the on-chain commitment,
// and the encoded tree itself (the buyer needs the whole thing to decode
// once the key is revealed).
type initMessage struct {
	ContractAddress string `json:"contract_address"`
	FileRoot        string `json:"file_root"`
	CiphertextRoot  string `json:"ciphertext_root"`
	Tree            any    `json:"tree"`
}

func bytecodeFromParameters(params map[string]string, key string) ([]byte, error) {
	hexStr, ok := params[key]
	if !ok || hexStr == "" {
		return nil, &bfeerrors.ProtocolInitializationError{Message: fmt.Sprintf("missing %q bytecode parameter", key)}
	}
	return hex.DecodeString(hexStr)
}

func weiToEth(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	eth, _ := new(big.Float).Quo(f, big.NewFloat(1e18)).Float64()
	return eth
}

func hexDigest(d merkle.Digest) string {
	return "0x" + hex.EncodeToString(d[:])
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func reusableContract(addressHex string, pc protocols.Context) *bindings.FairswapReusable {
	return bindings.NewFairswapReusable(common.HexToAddress(addressHex), pc.Chain.Client())
}

func bigIntFromUnix(t time.Time) *big.Int {
	return big.NewInt(t.Unix())
}

func decodeHexDigest(s string) (merkle.Digest, error) {
	var d merkle.Digest
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return d, &bfeerrors.ProtocolRuntimeError{Message: "decode hex digest", Cause: err}
	}
	if len(raw) != len(d) {
		return d, &bfeerrors.ProtocolRuntimeError{Message: fmt.Sprintf("digest %q is not 32 bytes", s)}
	}
	copy(d[:], raw)
	return d, nil
}
