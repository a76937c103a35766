package protocols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/fairswap-bench/pkg/party"
)

type stubStrategy struct{ role string }

func (s *stubStrategy) Run(ctx context.Context) (party.ResourceUsage, error) {
	return party.ResourceUsage{}, nil
}

func TestRegisterReturnsSameEntryForRepeatedName(t *testing.T) {
	defer func() { delete(registry, "stub-protocol") }()

	e1 := Register("stub-protocol")
	e2 := Register("stub-protocol")
	require.Same(t, e1, e2)
}

func TestRegisterSellerAndLookup(t *testing.T) {
	defer func() { delete(registry, "stub-protocol-2") }()

	e := Register("stub-protocol-2")
	e.RegisterSeller("faithful", func(c Context) Strategy { return &stubStrategy{role: "seller"} })
	e.RegisterBuyer("faithful", func(c Context) Strategy { return &stubStrategy{role: "buyer"} })

	sellers, err := SellerStrategies("stub-protocol-2")
	require.NoError(t, err)
	require.Contains(t, sellers, "faithful")

	strat, err := NewSellerStrategy("stub-protocol-2", "faithful", Context{})
	require.NoError(t, err)
	require.NotNil(t, strat)
}

func TestNewSellerStrategyUnknownProtocol(t *testing.T) {
	_, err := NewSellerStrategy("does-not-exist", "faithful", Context{})
	require.Error(t, err)
}

func TestNewBuyerStrategyUnknownStrategy(t *testing.T) {
	defer func() { delete(registry, "stub-protocol-3") }()

	e := Register("stub-protocol-3")
	e.RegisterBuyer("faithful", func(c Context) Strategy { return &stubStrategy{} })

	_, err := NewBuyerStrategy("stub-protocol-3", "unknown", Context{})
	require.Error(t, err)
}
