package protocol

import (
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/bridge"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/state"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/types"
)

// collateralSession 是 deposit / withdraw 在通过账户校验后的上下文
type collateralSession struct {
	accounts *CollateralAccounts
	vault    *state.TokenVault
	trove    *state.UserTrove
	signer   pda.Seeds // vault PDA 的签名 seed
}

// loadCollateral 完成全部账户约束检查，此阶段不产生任何写入
func loadCollateral(ctx *runtime.InvokeContext, a *CollateralAccounts, args CollateralArgs) (*collateralSession, error) {
	program := ctx.ProgramID()
	if args.Amount == 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", core.ErrInvalidAmount)
	}
	if err := requireSigner(ctx, a.Owner); err != nil {
		return nil, err
	}

	vault, err := loadTokenVault(ctx, a.TokenVault)
	if err != nil {
		return nil, err
	}
	if a.MintColl != vault.MintColl {
		return nil, fmt.Errorf("%w: mint_coll %s, vault expects %s", core.ErrInvalidAccountData, a.MintColl, vault.MintColl)
	}
	signer, err := pda.Check(program, a.TokenVault, consts.TokenVaultTag, args.TokenVaultNonce, vault.MintColl)
	if err != nil {
		return nil, err
	}

	if _, err := pda.Check(program, a.UserTrove, consts.UserTroveTag, args.UserTroveNonce, a.TokenVault, a.Owner); err != nil {
		return nil, err
	}
	trove, err := loadUserTrove(ctx, a.UserTrove)
	if err != nil {
		return nil, err
	}
	if trove.Owner != a.Owner || trove.Vault != a.TokenVault {
		return nil, fmt.Errorf("%w: trove %s belongs to %s/%s", core.ErrAuthorizationMismatch, a.UserTrove, trove.Owner, trove.Vault)
	}

	if _, err := pda.Check(program, a.PoolTokenColl, consts.TokenVaultPoolTag, args.TokenCollNonce, a.TokenVault); err != nil {
		return nil, err
	}
	if a.PoolTokenColl != vault.TokenColl {
		return nil, fmt.Errorf("%w: pool_token_coll %s, vault expects %s", core.ErrInvalidAccountData, a.PoolTokenColl, vault.TokenColl)
	}
	if _, err := loadTokenAccount(ctx, a.PoolTokenColl, a.TokenVault, vault.MintColl, "pool_token_coll"); err != nil {
		return nil, err
	}
	if _, err := loadTokenAccount(ctx, a.UserTokenColl, a.Owner, vault.MintColl, "user_token_coll"); err != nil {
		return nil, err
	}

	if a.Venue.Program != vault.VenueProgram {
		return nil, fmt.Errorf("%w: venue program %s, vault expects %s", core.ErrInvalidAccountData, a.Venue.Program, vault.VenueProgram)
	}
	if err := a.Venue.Validate(a.TokenVault, a.PoolTokenColl); err != nil {
		return nil, err
	}

	if err := checkRewardPair(ctx, a.Venue.PoolReward, a.UserRewardToken, a.TokenVault, a.Owner); err != nil {
		return nil, err
	}
	if !a.UserRewardTokenB.IsZero() {
		if err := checkRewardPair(ctx, a.Venue.PoolRewardB, a.UserRewardTokenB, a.TokenVault, a.Owner); err != nil {
			return nil, err
		}
	}

	return &collateralSession{accounts: a, vault: vault, trove: trove, signer: signer}, nil
}

// checkRewardPair 托管奖励账户由 vault 控制，用户奖励账户由 owner 持有且 mint 一致
func checkRewardPair(ctx *runtime.InvokeContext, custody, user, vault, owner types.Pubkey) error {
	pool, err := loadTokenAccount(ctx, custody, vault, types.Pubkey{}, "pool_reward_token")
	if err != nil {
		return err
	}
	_, err = loadTokenAccount(ctx, user, owner, pool.Mint, "user_reward_token")
	return err
}

func (s *collateralSession) saveRecords(ctx *runtime.InvokeContext) error {
	if err := save(ctx, s.accounts.TokenVault, s.vault); err != nil {
		return err
	}
	return save(ctx, s.accounts.UserTrove, s.trove)
}

// sweep 收割主奖励，调用方提供了 user_reward_token_b 时同时收割第二奖励
func (s *collateralSession) sweep(ctx *runtime.InvokeContext) (uint64, uint64, error) {
	a := s.accounts
	reward, err := bridge.HarvestAndSweep(ctx, a.Venue.PoolReward, a.UserRewardToken, a.TokenVault, s.signer)
	if err != nil {
		return 0, 0, err
	}
	if a.UserRewardTokenB.IsZero() {
		return reward, 0, nil
	}
	rewardB, err := bridge.HarvestAndSweep(ctx, a.Venue.PoolRewardB, a.UserRewardTokenB, a.TokenVault, s.signer)
	if err != nil {
		return 0, 0, err
	}
	return reward, rewardB, nil
}

func (s *collateralSession) event(kind core.EventType, amount, staked, reward, rewardB uint64) core.Event {
	return core.Event{
		Type:       kind,
		Owner:      s.accounts.Owner,
		Vault:      s.accounts.TokenVault,
		Mint:       s.vault.MintColl,
		Amount:     amount,
		Staked:     staked,
		Reward:     reward,
		RewardB:    rewardB,
		TotalColl:  s.vault.TotalColl,
		LockedColl: s.trove.LockedCollBalance,
	}
}

// depositCollateral
// TransferIn → CreditLedger → Stake → Harvest → SweepReward
func depositCollateral(ctx *runtime.InvokeContext, a *CollateralAccounts, args CollateralArgs) error {
	s, err := loadCollateral(ctx, a, args)
	if err != nil {
		return err
	}

	if err := token.Transfer(ctx, a.UserTokenColl, a.PoolTokenColl, a.Owner, args.Amount); err != nil {
		return err
	}

	if err := s.vault.IncreaseTotal(args.Amount); err != nil {
		return err
	}
	if err := s.trove.IncreaseLocked(args.Amount); err != nil {
		return err
	}
	if err := s.saveRecords(ctx); err != nil {
		return err
	}

	// 托管池的全部余额转入质押场所
	staked, err := token.BalanceOf(ctx, a.PoolTokenColl)
	if err != nil {
		return err
	}
	if err := bridge.Stake(ctx, &a.Venue, staked, s.signer); err != nil {
		return err
	}

	reward, rewardB, err := s.sweep(ctx)
	if err != nil {
		return err
	}

	ctx.Logf("deposit %d, staked=%d, reward=%d, reward_b=%d", args.Amount, staked, reward, rewardB)
	ctx.Emit(s.event(core.EventCollateralDeposited, args.Amount, staked, reward, rewardB))
	return nil
}

// withdrawCollateral
// CheckAndDebitLedger → Unstake → TransferOut → Harvest → SweepReward
func withdrawCollateral(ctx *runtime.InvokeContext, a *CollateralAccounts, args CollateralArgs) error {
	s, err := loadCollateral(ctx, a, args)
	if err != nil {
		return err
	}

	if err := s.trove.DecreaseLocked(args.Amount); err != nil {
		return err
	}
	if err := s.vault.DecreaseTotal(args.Amount); err != nil {
		return err
	}
	if err := s.saveRecords(ctx); err != nil {
		return err
	}

	if err := bridge.Unstake(ctx, &a.Venue, args.Amount, s.signer); err != nil {
		return err
	}
	if err := token.Transfer(ctx, a.PoolTokenColl, a.UserTokenColl, a.TokenVault, args.Amount, s.signer.SignerSeeds()); err != nil {
		return err
	}

	reward, rewardB, err := s.sweep(ctx)
	if err != nil {
		return err
	}

	ctx.Logf("withdraw %d, reward=%d, reward_b=%d", args.Amount, reward, rewardB)
	ctx.Emit(s.event(core.EventCollateralWithdrawn, args.Amount, args.Amount, reward, rewardB))
	return nil
}
