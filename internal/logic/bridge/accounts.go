package bridge

import (
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"
)

// VenueAccounts 是调用质押场所所需的全部账户。
// 字段顺序与 Metas() 输出顺序一致，该顺序是调用协议的一部分。
type VenueAccounts struct {
	Program types.Pubkey

	PoolID         types.Pubkey
	PoolAuthority  types.Pubkey
	AssociatedInfo types.Pubkey
	PoolMain       types.Pubkey // 本程序的 vault PDA，作为签名者
	PoolLP         types.Pubkey // 本程序托管的抵押物账户
	VenueLP        types.Pubkey
	PoolReward     types.Pubkey // 本程序托管的奖励账户
	VenueReward    types.Pubkey
	Clock          types.Pubkey
	TokenProgram   types.Pubkey
	PoolRewardB    types.Pubkey
	VenueRewardB   types.Pubkey
	PoolInfo       [consts.VenuePoolInfoAccount]types.Pubkey
}

// Metas 返回 17 个账户的有序列表（地址、可写、签名）
func (a *VenueAccounts) Metas() []core.AccountMeta {
	metas := make([]core.AccountMeta, 0, consts.VenueAccountListLen)
	metas = append(metas,
		core.Writable(a.PoolID),
		core.Readonly(a.PoolAuthority),
		core.Writable(a.AssociatedInfo),
		core.ReadonlySigner(a.PoolMain),
		core.Writable(a.PoolLP),
		core.Writable(a.VenueLP),
		core.Writable(a.PoolReward),
		core.Writable(a.VenueReward),
		core.Readonly(a.Clock),
		core.Readonly(a.TokenProgram),
		core.Writable(a.PoolRewardB),
		core.Writable(a.VenueRewardB),
	)
	for _, info := range a.PoolInfo {
		metas = append(metas, core.Writable(info))
	}
	return metas
}

// VenueAccountsFromKeys 按协议顺序从 17 个地址还原结构（venue 程序侧解析使用）
func VenueAccountsFromKeys(program types.Pubkey, keys []types.Pubkey) (*VenueAccounts, error) {
	if len(keys) != consts.VenueAccountListLen {
		return nil, fmt.Errorf("%w: venue account list has %d entries, want %d",
			core.ErrInvalidInstructionData, len(keys), consts.VenueAccountListLen)
	}
	a := &VenueAccounts{
		Program:        program,
		PoolID:         keys[0],
		PoolAuthority:  keys[1],
		AssociatedInfo: keys[2],
		PoolMain:       keys[3],
		PoolLP:         keys[4],
		VenueLP:        keys[5],
		PoolReward:     keys[6],
		VenueReward:    keys[7],
		Clock:          keys[8],
		TokenProgram:   keys[9],
		PoolRewardB:    keys[10],
		VenueRewardB:   keys[11],
	}
	copy(a.PoolInfo[:], keys[12:])
	return a, nil
}

// Validate 在边界处一次性校验账户列表结构：
// vault 为 pool main 签名者，custody 为 pool LP，sysvar 与 token program 地址正确。
func (a *VenueAccounts) Validate(vault, custody types.Pubkey) error {
	if a.Program.IsZero() {
		return fmt.Errorf("%w: venue program not set", core.ErrInvalidAccountData)
	}
	if a.PoolMain != vault {
		return fmt.Errorf("%w: pool main account %s is not vault %s", core.ErrAuthorizationMismatch, a.PoolMain, vault)
	}
	if a.PoolLP != custody {
		return fmt.Errorf("%w: pool lp account %s is not custody pool %s", core.ErrInvalidAccountData, a.PoolLP, custody)
	}
	if a.Clock != consts.SysvarClock {
		return fmt.Errorf("%w: clock %s is not the clock sysvar", core.ErrInvalidAccountData, a.Clock)
	}
	if a.TokenProgram != consts.TokenProgram {
		return fmt.Errorf("%w: token program %s", core.ErrInvalidAccountData, a.TokenProgram)
	}
	for i, m := range a.Metas() {
		if m.Pubkey.IsZero() {
			return fmt.Errorf("%w: venue account #%d is empty", core.ErrInvalidAccountData, i)
		}
	}
	return nil
}
