package channel

import (
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func randomParams(t *testing.T, seller, buyer, app common.Address) Params {
	t.Helper()
	var nonce [32]byte
	_, err := rand.Read(nonce[:])
	require.NoError(t, err)
	return Params{
		ChallengeDuration: 60,
		Nonce:             nonce,
		Participants:      [2]common.Address{seller, buyer},
		App:               app,
		LedgerChannel:     true,
	}
}

func TestChannelIDDeterministic(t *testing.T) {
	var seller, buyer, app common.Address
	seller[0], buyer[0], app[0] = 1, 2, 3

	p := randomParams(t, seller, buyer, app)
	id1, err := p.ChannelID()
	require.NoError(t, err)
	id2, err := p.ChannelID()
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestFundingIDDiffersByParticipant(t *testing.T) {
	var channelID common.Hash
	channelID[0] = 7
	var a, b common.Address
	a[0], b[0] = 1, 2

	idA := FundingID(channelID, a)
	idB := FundingID(channelID, b)
	require.NotEqual(t, idA, idB)
}

func TestSignAndVerifyState(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	s := State{
		Outcome: Allocation{
			Balances: [][]*uint256.Int{{uint256.NewInt(100), uint256.NewInt(200)}},
		},
		AppData: []byte("app-state"),
		Version: 1,
	}

	sig, err := SignState(s, key)
	require.NoError(t, err)

	ok, err := VerifyStateSig(s, sig, addr)
	require.NoError(t, err)
	require.True(t, ok)

	var other common.Address
	other[0] = 0xFF
	ok, err = VerifyStateSig(s, sig, other)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyStateSig_RejectsTamperedState(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	s := State{AppData: []byte("app-state"), Version: 1}
	sig, err := SignState(s, key)
	require.NoError(t, err)

	tampered := s
	tampered.Version = 2
	ok, err := VerifyStateSig(tampered, sig, addr)
	require.NoError(t, err)
	require.False(t, ok)
}
