package state

import (
	"errors"
	"math"
	"testing"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSizesMatchEncoding(t *testing.T) {
	g, err := (&GlobalState{}).Encode()
	require.NoError(t, err)
	assert.Len(t, g, GlobalStateSize)

	v, err := (&TokenVault{RiskLevel: 50}).Encode()
	require.NoError(t, err)
	assert.Len(t, v, TokenVaultSize)

	tr, err := (&UserTrove{}).Encode()
	require.NoError(t, err)
	assert.Len(t, tr, UserTroveSize)
}

func TestTokenVaultDecode(t *testing.T) {
	var mint types.Pubkey
	mint[0] = 7
	in := &TokenVault{MintColl: mint, TotalColl: 1000, RiskLevel: 80}
	data, err := in.Encode()
	require.NoError(t, err)

	out, err := DecodeTokenVault(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsWrongRecordType(t *testing.T) {
	data, err := (&UserTrove{LockedCollBalance: 1}).Encode()
	require.NoError(t, err)

	_, err = DecodeTokenVault(data)
	assert.True(t, errors.Is(err, core.ErrInvalidAccountData))

	data[discriminatorLen] = recordVersion + 1
	_, err = DecodeUserTrove(data)
	assert.True(t, errors.Is(err, core.ErrInvalidAccountData))

	_, err = DecodeGlobalState(nil)
	assert.True(t, errors.Is(err, core.ErrInvalidAccountData))
}

func TestDecodeRejectsRiskLevelOutOfRange(t *testing.T) {
	data, err := (&TokenVault{RiskLevel: 101}).Encode()
	require.NoError(t, err)
	_, err = DecodeTokenVault(data)
	assert.True(t, errors.Is(err, core.ErrInvalidAccountData))
}

func TestVaultTotalMutators(t *testing.T) {
	v := &TokenVault{TotalColl: 10}
	require.NoError(t, v.IncreaseTotal(5))
	assert.Equal(t, uint64(15), v.TotalColl)

	require.NoError(t, v.DecreaseTotal(15))
	assert.Equal(t, uint64(0), v.TotalColl)

	err := v.DecreaseTotal(1)
	assert.True(t, errors.Is(err, core.ErrArithmeticUnderflow))
	assert.Equal(t, uint64(0), v.TotalColl, "失败时记录不变")

	v.TotalColl = math.MaxUint64
	err = v.IncreaseTotal(1)
	assert.True(t, errors.Is(err, core.ErrArithmeticOverflow))
	assert.Equal(t, uint64(math.MaxUint64), v.TotalColl)
}

func TestTroveLockedMutators(t *testing.T) {
	tr := &UserTrove{LockedCollBalance: 100}
	require.NoError(t, tr.DecreaseLocked(100))
	assert.Zero(t, tr.LockedCollBalance)

	err := tr.DecreaseLocked(1)
	assert.True(t, errors.Is(err, core.ErrInsufficientFunds))
	assert.Zero(t, tr.LockedCollBalance)

	tr.LockedCollBalance = math.MaxUint64 - 1
	require.NoError(t, tr.IncreaseLocked(1))
	err = tr.IncreaseLocked(1)
	assert.True(t, errors.Is(err, core.ErrArithmeticOverflow))
}

func TestDiscriminatorsDiffer(t *testing.T) {
	assert.NotEqual(t, globalStateDisc, tokenVaultDisc)
	assert.NotEqual(t, tokenVaultDisc, userTroveDisc)
	assert.Equal(t, Discriminator("TokenVault"), tokenVaultDisc)
}
