package sandbox

import (
	"stablecoin-vault-sol/internal/logic/state"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/logic/venue"
	"stablecoin-vault-sol/internal/types"
)

// Snapshot 是某个 (market, user) 在已提交状态下的全部可观测数值
type Snapshot struct {
	TotalColl        uint64
	LockedColl       uint64
	UserColl         uint64
	UserReward       uint64
	UserRewardB      uint64
	PoolColl         uint64 // vault 托管池余额
	PoolReward       uint64 // vault 托管的奖励余额
	PoolRewardB      uint64
	VenueLP          uint64
	VenueReward      uint64
	Deposited        uint64 // 质押场所记录的 vault 质押量
	VenueTotalStaked uint64
}

func (w *World) balance(key types.Pubkey) (uint64, error) {
	acc, err := w.Bank.Account(key)
	if err != nil {
		return 0, err
	}
	return token.Balance(acc)
}

func (w *World) Snapshot(m *Market, u *User) (*Snapshot, error) {
	vaultAcc, err := w.Bank.Account(m.TokenVault)
	if err != nil {
		return nil, err
	}
	vault, err := state.DecodeTokenVault(vaultAcc.Data)
	if err != nil {
		return nil, err
	}
	troveAcc, err := w.Bank.Account(u.UserTrove)
	if err != nil {
		return nil, err
	}
	trove, err := state.DecodeUserTrove(troveAcc.Data)
	if err != nil {
		return nil, err
	}
	poolAcc, err := w.Bank.Account(m.Venue.PoolID)
	if err != nil {
		return nil, err
	}
	pool, err := venue.DecodePoolState(poolAcc.Data)
	if err != nil {
		return nil, err
	}
	infoAcc, err := w.Bank.Account(m.Venue.AssociatedInfo)
	if err != nil {
		return nil, err
	}
	info, err := venue.DecodeStakeInfo(infoAcc.Data)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		TotalColl:        vault.TotalColl,
		LockedColl:       trove.LockedCollBalance,
		Deposited:        info.Deposited,
		VenueTotalStaked: pool.TotalStaked,
	}
	balances := []struct {
		key types.Pubkey
		dst *uint64
	}{
		{u.UserTokenColl, &snap.UserColl},
		{u.UserRewardToken, &snap.UserReward},
		{u.UserRewardTokenB, &snap.UserRewardB},
		{m.TokenColl, &snap.PoolColl},
		{m.Venue.PoolReward, &snap.PoolReward},
		{m.Venue.PoolRewardB, &snap.PoolRewardB},
		{m.Venue.VenueLP, &snap.VenueLP},
		{m.Venue.VenueReward, &snap.VenueReward},
	}
	for _, b := range balances {
		if *b.dst, err = w.balance(b.key); err != nil {
			return nil, err
		}
	}
	return snap, nil
}
