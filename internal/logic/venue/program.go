package venue

import (
	"errors"
	"fmt"
	"math"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/bridge"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/types"
)

var ErrPoolPaused = errors.New("venue pool paused")

// VenueAccounts 与 bridge 侧使用同一账户结构
type VenueAccounts = bridge.VenueAccounts

// Program 是质押场所的本地参考实现，只实现 stake(11) / unstake(12) 两个入口。
// 每次调用先结算奖励到调用方的奖励账户，再移动 LP。
type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) Process(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	payload, err := bridge.DecodeStakePayload(ix.Data)
	if err != nil {
		return err
	}
	keys := make([]types.Pubkey, len(ix.Accounts))
	for i, m := range ix.Accounts {
		keys[i] = m.Pubkey
	}
	accounts, err := bridge.VenueAccountsFromKeys(ix.ProgramID, keys)
	if err != nil {
		return err
	}

	switch payload.Instruction {
	case consts.VenueStakeOpcode:
		return p.stake(ctx, accounts, payload.Amount)
	case consts.VenueUnstakeOpcode:
		return p.unstake(ctx, accounts, payload.Amount)
	default:
		return fmt.Errorf("%w: venue opcode %d", core.ErrUnknownInstruction, payload.Instruction)
	}
}

// session 是一次调用中已校验的池子上下文
type session struct {
	accounts *VenueAccounts
	pool     *PoolState
	info     *StakeInfo
	seeds    pda.Seeds
}

func (p *Program) load(ctx *runtime.InvokeContext, a *VenueAccounts) (*session, error) {
	if !ctx.IsSigner(a.PoolMain) {
		return nil, fmt.Errorf("%w: pool main account %s did not sign", core.ErrAuthorizationMismatch, a.PoolMain)
	}
	if a.Clock != consts.SysvarClock || a.TokenProgram != consts.TokenProgram {
		return nil, fmt.Errorf("%w: clock / token program", core.ErrInvalidAccountData)
	}

	authority, bump, err := pda.Derive(ctx.ProgramID(), PoolAuthorityTag, a.PoolID)
	if err != nil {
		return nil, err
	}
	if authority != a.PoolAuthority {
		return nil, fmt.Errorf("%w: pool authority %s", core.ErrInvalidDerivedAddress, a.PoolAuthority)
	}

	poolAcc, err := ctx.Account(a.PoolID)
	if err != nil {
		return nil, err
	}
	if poolAcc.Owner != ctx.ProgramID() {
		return nil, fmt.Errorf("%w: pool %s not owned by venue", core.ErrInvalidAccountData, a.PoolID)
	}
	pool, err := DecodePoolState(poolAcc.Data)
	if err != nil {
		return nil, err
	}
	if pool.Paused {
		return nil, ErrPoolPaused
	}
	if pool.VenueLP != a.VenueLP || pool.VenueReward != a.VenueReward || pool.VenueRewardB != a.VenueRewardB {
		return nil, fmt.Errorf("%w: venue token accounts do not match pool %s", core.ErrInvalidAccountData, a.PoolID)
	}

	infoAcc, err := ctx.Account(a.AssociatedInfo)
	if err != nil {
		return nil, err
	}
	if infoAcc.Owner != ctx.ProgramID() {
		return nil, fmt.Errorf("%w: associated info %s not owned by venue", core.ErrInvalidAccountData, a.AssociatedInfo)
	}
	info, err := DecodeStakeInfo(infoAcc.Data)
	if err != nil {
		return nil, err
	}
	if info.Kind == 0 {
		info.Pool = a.PoolID
		info.Staker = a.PoolMain
	}
	if info.Pool != a.PoolID || info.Staker != a.PoolMain {
		return nil, fmt.Errorf("%w: associated info %s belongs to another staker", core.ErrAuthorizationMismatch, a.AssociatedInfo)
	}

	return &session{
		accounts: a,
		pool:     pool,
		info:     info,
		seeds:    pda.Seeds{Tag: PoolAuthorityTag, Inputs: []types.Pubkey{a.PoolID}, Bump: bump},
	}, nil
}

// harvest 将本次调用应得奖励从场所奖励账户转给调用方奖励账户
func (s *session) harvest(ctx *runtime.InvokeContext) error {
	a := s.accounts
	if err := s.pay(ctx, a.VenueReward, a.PoolReward, s.pool.RewardPerCall); err != nil {
		return err
	}
	return s.pay(ctx, a.VenueRewardB, a.PoolRewardB, s.pool.RewardBPerCall)
}

func (s *session) pay(ctx *runtime.InvokeContext, from, to types.Pubkey, want uint64) error {
	if want == 0 {
		return nil
	}
	available, err := token.BalanceOf(ctx, from)
	if err != nil {
		return err
	}
	amount := min(want, available)
	if amount == 0 {
		return nil
	}
	return token.Transfer(ctx, from, to, s.accounts.PoolAuthority, amount, s.seeds.SignerSeeds())
}

func (s *session) save(ctx *runtime.InvokeContext) error {
	s.pool.LastSlot = ctx.Clock().Slot
	poolData, err := s.pool.Encode()
	if err != nil {
		return err
	}
	if err := ctx.SetData(s.accounts.PoolID, poolData); err != nil {
		return err
	}
	infoData, err := s.info.Encode()
	if err != nil {
		return err
	}
	return ctx.SetData(s.accounts.AssociatedInfo, infoData)
}

func (p *Program) stake(ctx *runtime.InvokeContext, a *VenueAccounts, amount uint64) error {
	s, err := p.load(ctx, a)
	if err != nil {
		return err
	}
	if err := s.harvest(ctx); err != nil {
		return err
	}
	if amount > 0 {
		if s.pool.TotalStaked > math.MaxUint64-amount {
			return fmt.Errorf("%w: pool total staked", core.ErrArithmeticOverflow)
		}
		// LP 由调用方签名（pool main）转入
		if err := token.Transfer(ctx, a.PoolLP, a.VenueLP, a.PoolMain, amount); err != nil {
			return err
		}
		s.pool.TotalStaked += amount
		s.info.Deposited += amount
	}
	ctx.Logf("stake %d, deposited=%d", amount, s.info.Deposited)
	return s.save(ctx)
}

func (p *Program) unstake(ctx *runtime.InvokeContext, a *VenueAccounts, amount uint64) error {
	s, err := p.load(ctx, a)
	if err != nil {
		return err
	}
	if s.info.Deposited < amount {
		return fmt.Errorf("%w: deposited %d < %d", core.ErrInsufficientFunds, s.info.Deposited, amount)
	}
	if err := s.harvest(ctx); err != nil {
		return err
	}
	if amount > 0 {
		if err := token.Transfer(ctx, a.VenueLP, a.PoolLP, a.PoolAuthority, amount, s.seeds.SignerSeeds()); err != nil {
			return err
		}
		s.pool.TotalStaked -= amount
		s.info.Deposited -= amount
	}
	ctx.Logf("unstake %d, deposited=%d", amount, s.info.Deposited)
	return s.save(ctx)
}
