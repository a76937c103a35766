// Package protocols defines the strategy/registry contract every
// fair-exchange protocol implementation plugs into. original_source's
// loader.py discovers Strategy subclasses at runtime via
// pkgutil.iter_modules; this package instead exposes an explicit
// compile-time registry that each protocol subpackage populates from its
// own init().
package protocols

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/Layr-Labs/fairswap-bench/pkg/chainadapter"
	"github.com/Layr-Labs/fairswap-bench/pkg/contractdeploy"
	"github.com/Layr-Labs/fairswap-bench/pkg/p2pstream"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
)

// Context is everything a strategy needs to run one trade, passed in at
// construction instead of a back-reference to its owning protocol: a
// Strategy never reaches back into its Protocol, which instead hands it
// everything up front.
type Context struct {
	Stream   *p2pstream.Stream
	Chain    *chainadapter.Adapter
	Deployer *contractdeploy.Deployer
	Logger   *zap.Logger

	Key         *ecdsa.PrivateKey
	Counterparty [20]byte
	FilePath    string
	Price       *big.Int
	Timeout     time.Duration
	Parameters  map[string]string
}

// Strategy is implemented by every seller and buyer strategy. Run performs
// one full trade and returns the resource usage the CSV row reports (wall
// clock is filled in by the caller; this covers tx count/gas/balance
// diff, which only the strategy can compute since it alone knows which
// transactions were "its own").
type Strategy interface {
	Run(ctx context.Context) (party.ResourceUsage, error)
}

// Constructor builds a Strategy from a Context.
type Constructor func(Context) Strategy

// Entry is one registered protocol: its name and the seller/buyer
// strategies available under it.
type Entry struct {
	Name            string
	SellerStrategies map[string]Constructor
	BuyerStrategies  map[string]Constructor
}

var registry = map[string]*Entry{}

// Register adds a new protocol to the registry, or returns the existing
// entry if name is already registered (so strategies for one protocol can
// be registered from separate files). Fairswap's one-shot and reusable
// variants register separate entries, "fairswap" and "fairswap-reusable".
func Register(name string) *Entry {
	if e, ok := registry[name]; ok {
		return e
	}
	e := &Entry{Name: name, SellerStrategies: map[string]Constructor{}, BuyerStrategies: map[string]Constructor{}}
	registry[name] = e
	return e
}

// RegisterSeller adds a seller strategy constructor under this entry.
func (e *Entry) RegisterSeller(name string, ctor Constructor) {
	e.SellerStrategies[name] = ctor
}

// RegisterBuyer adds a buyer strategy constructor under this entry.
func (e *Entry) RegisterBuyer(name string, ctor Constructor) {
	e.BuyerStrategies[name] = ctor
}

// Protocols lists every registered protocol name.
func Protocols() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Lookup returns the registered entry for name, if any.
func Lookup(name string) (*Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// SellerStrategies lists the seller strategy names registered for
// protocol, or an error if protocol isn't registered.
func SellerStrategies(protocol string) ([]string, error) {
	e, ok := registry[protocol]
	if !ok {
		return nil, fmt.Errorf("protocols: unknown protocol %q", protocol)
	}
	names := make([]string, 0, len(e.SellerStrategies))
	for name := range e.SellerStrategies {
		names = append(names, name)
	}
	return names, nil
}

// BuyerStrategies lists the buyer strategy names registered for protocol,
// or an error if protocol isn't registered.
func BuyerStrategies(protocol string) ([]string, error) {
	e, ok := registry[protocol]
	if !ok {
		return nil, fmt.Errorf("protocols: unknown protocol %q", protocol)
	}
	names := make([]string, 0, len(e.BuyerStrategies))
	for name := range e.BuyerStrategies {
		names = append(names, name)
	}
	return names, nil
}

// NewSellerStrategy constructs the named seller strategy for protocol.
func NewSellerStrategy(protocol, strategy string, ctx Context) (Strategy, error) {
	e, ok := registry[protocol]
	if !ok {
		return nil, fmt.Errorf("protocols: unknown protocol %q", protocol)
	}
	ctor, ok := e.SellerStrategies[strategy]
	if !ok {
		return nil, fmt.Errorf("protocols: unknown seller strategy %q for protocol %q", strategy, protocol)
	}
	return ctor(ctx), nil
}

// NewBuyerStrategy constructs the named buyer strategy for protocol.
func NewBuyerStrategy(protocol, strategy string, ctx Context) (Strategy, error) {
	e, ok := registry[protocol]
	if !ok {
		return nil, fmt.Errorf("protocols: unknown protocol %q", protocol)
	}
	ctor, ok := e.BuyerStrategies[strategy]
	if !ok {
		return nil, fmt.Errorf("protocols: unknown buyer strategy %q for protocol %q", strategy, protocol)
	}
	return ctor(ctx), nil
}
