package venue

import (
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/near/borsh-go"
)

// PoolAuthorityTag 质押池 authority PDA 的 seed 前缀：[tag, pool_id]
const PoolAuthorityTag = "pool-authority-seed"

const (
	poolStateKind uint8 = 1
	stakeInfoKind uint8 = 2
)

// PoolState 保存在 pool id 账户中
type PoolState struct {
	Kind         uint8
	LPMint       types.Pubkey
	VenueLP      types.Pubkey
	VenueReward  types.Pubkey
	VenueRewardB types.Pubkey
	TotalStaked  uint64
	// 每次调用向调用方结算的奖励数量（不超过奖励账户余额）
	RewardPerCall  uint64
	RewardBPerCall uint64
	LastSlot       uint64
	Paused         bool
}

// StakeInfo 保存在 associated info 账户中，记录某个 pool main 账户的质押量
type StakeInfo struct {
	Kind      uint8
	Pool      types.Pubkey
	Staker    types.Pubkey
	Deposited uint64
}

// PoolStateSize / StakeInfoSize borsh 编码后的定长大小
const (
	PoolStateSize = 1 + 32*4 + 8*4 + 1
	StakeInfoSize = 1 + 32*2 + 8
)

func (p *PoolState) Encode() ([]byte, error) {
	p.Kind = poolStateKind
	return borsh.Serialize(*p)
}

func DecodePoolState(data []byte) (*PoolState, error) {
	var p PoolState
	if err := borsh.Deserialize(&p, data); err != nil {
		return nil, fmt.Errorf("%w: pool state: %v", core.ErrInvalidAccountData, err)
	}
	if p.Kind != poolStateKind {
		return nil, fmt.Errorf("%w: pool state kind %d", core.ErrInvalidAccountData, p.Kind)
	}
	return &p, nil
}

func (s *StakeInfo) Encode() ([]byte, error) {
	s.Kind = stakeInfoKind
	return borsh.Serialize(*s)
}

// DecodeStakeInfo 全零数据视为尚未初始化的 StakeInfo
func DecodeStakeInfo(data []byte) (*StakeInfo, error) {
	if isZero(data) {
		return &StakeInfo{}, nil
	}
	var s StakeInfo
	if err := borsh.Deserialize(&s, data); err != nil {
		return nil, fmt.Errorf("%w: stake info: %v", core.ErrInvalidAccountData, err)
	}
	if s.Kind != stakeInfoKind {
		return nil, fmt.Errorf("%w: stake info kind %d", core.ErrInvalidAccountData, s.Kind)
	}
	return &s, nil
}

func isZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
