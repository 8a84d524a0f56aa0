package state

import (
	"fmt"
	"math"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"
)

// 各记录分配的账户空间（头部 + borsh 定长字段）
const (
	GlobalStateSize = headerLen + 32 + 32
	TokenVaultSize  = headerLen + 32*3 + 8*2 + 1
	UserTroveSize   = headerLen + 32*2 + 8*2
)

// GlobalState 全局配置（单例）
type GlobalState struct {
	SuperOwner types.Pubkey
	MintUsd    types.Pubkey
}

func (g *GlobalState) Encode() ([]byte, error) {
	return encodeRecord(globalStateDisc, *g)
}

func DecodeGlobalState(data []byte) (*GlobalState, error) {
	var g GlobalState
	if err := decodeRecord("GlobalState", globalStateDisc, data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// TokenVault 每种抵押资产一个
type TokenVault struct {
	MintColl     types.Pubkey // 抵押资产 Mint
	TokenColl    types.Pubkey // 托管池地址（authority 为本 vault PDA）
	VenueProgram types.Pubkey // 抵押物转入的质押场所程序
	TotalColl    uint64       // 所有 trove 锁定抵押物之和
	TotalDebt    uint64
	RiskLevel    uint8
}

func (v *TokenVault) Encode() ([]byte, error) {
	return encodeRecord(tokenVaultDisc, *v)
}

func DecodeTokenVault(data []byte) (*TokenVault, error) {
	var v TokenVault
	if err := decodeRecord("TokenVault", tokenVaultDisc, data, &v); err != nil {
		return nil, err
	}
	if v.RiskLevel > consts.MaxRiskLevel {
		return nil, fmt.Errorf("%w: risk level %d", core.ErrInvalidAccountData, v.RiskLevel)
	}
	return &v, nil
}

func (v *TokenVault) IncreaseTotal(amount uint64) error {
	if v.TotalColl > math.MaxUint64-amount {
		return fmt.Errorf("%w: total_coll %d + %d", core.ErrArithmeticOverflow, v.TotalColl, amount)
	}
	v.TotalColl += amount
	return nil
}

func (v *TokenVault) DecreaseTotal(amount uint64) error {
	if v.TotalColl < amount {
		return fmt.Errorf("%w: total_coll %d - %d", core.ErrArithmeticUnderflow, v.TotalColl, amount)
	}
	v.TotalColl -= amount
	return nil
}

// UserTrove 每个 (vault, owner) 一个
type UserTrove struct {
	Owner             types.Pubkey
	Vault             types.Pubkey
	LockedCollBalance uint64
	DebtBalance       uint64
}

func (t *UserTrove) Encode() ([]byte, error) {
	return encodeRecord(userTroveDisc, *t)
}

func DecodeUserTrove(data []byte) (*UserTrove, error) {
	var t UserTrove
	if err := decodeRecord("UserTrove", userTroveDisc, data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *UserTrove) IncreaseLocked(amount uint64) error {
	if t.LockedCollBalance > math.MaxUint64-amount {
		return fmt.Errorf("%w: locked_coll %d + %d", core.ErrArithmeticOverflow, t.LockedCollBalance, amount)
	}
	t.LockedCollBalance += amount
	return nil
}

// DecreaseLocked 取出数量超过锁定余额时返回 ErrInsufficientFunds
func (t *UserTrove) DecreaseLocked(amount uint64) error {
	if t.LockedCollBalance < amount {
		return fmt.Errorf("%w: locked_coll %d < %d", core.ErrInsufficientFunds, t.LockedCollBalance, amount)
	}
	t.LockedCollBalance -= amount
	return nil
}
