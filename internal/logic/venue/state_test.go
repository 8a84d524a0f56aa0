package venue

import (
	"errors"
	"testing"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolStateEncoding(t *testing.T) {
	var mint types.Pubkey
	mint[0] = 7
	p := &PoolState{LPMint: mint, RewardPerCall: 5, TotalStaked: 1000, Paused: true}
	data, err := p.Encode()
	require.NoError(t, err)
	assert.Len(t, data, PoolStateSize)

	got, err := DecodePoolState(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	// StakeInfo 数据不能当作 PoolState 读取
	info, err := (&StakeInfo{Deposited: 1}).Encode()
	require.NoError(t, err)
	_, err = DecodePoolState(append(info, make([]byte, PoolStateSize-len(info))...))
	assert.True(t, errors.Is(err, core.ErrInvalidAccountData))
}

func TestStakeInfoEncoding(t *testing.T) {
	empty, err := DecodeStakeInfo(make([]byte, StakeInfoSize))
	require.NoError(t, err)
	assert.Zero(t, empty.Deposited)
	assert.True(t, empty.Pool.IsZero())

	s := &StakeInfo{Deposited: 42}
	s.Pool[1] = 1
	data, err := s.Encode()
	require.NoError(t, err)
	assert.Len(t, data, StakeInfoSize)

	got, err := DecodeStakeInfo(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Deposited)
	assert.Equal(t, s.Pool, got.Pool)

	data[0] = 9
	_, err = DecodeStakeInfo(data)
	assert.True(t, errors.Is(err, core.ErrInvalidAccountData))
}
