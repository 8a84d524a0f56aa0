package sandbox

import (
	"context"
	"crypto/sha256"
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/protocol"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/logic/venue"
	"stablecoin-vault-sol/internal/pkg/logger"
	"stablecoin-vault-sol/internal/types"
)

// KeyFor 由标签确定性地生成地址，同一标签在重启后得到同一账户
func KeyFor(label string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte("sandbox:" + label)))
}

// World 是本地模拟环境：一个 Bank 加上 token / venue / vault 三个程序
type World struct {
	Bank         *runtime.Bank
	VaultProgram types.Pubkey
	VenueProgram types.Pubkey
	SuperOwner   types.Pubkey

	GlobalState      types.Pubkey
	GlobalStateNonce uint8
	MintUsd          types.Pubkey
	MintUsdNonce     uint8
}

func NewWorld(store runtime.AccountStore, vaultProgram, venueProgram types.Pubkey) *World {
	bank := runtime.NewBank(store)
	bank.RegisterProgram(consts.TokenProgram, token.NewProgram())
	bank.RegisterProgram(venueProgram, venue.NewProgram())
	bank.RegisterProgram(vaultProgram, protocol.NewProgram())
	bank.RegisterProgram(JournalProgram, runtime.ProgramFunc(processJournal))

	gs, gsNonce := pda.MustDerive(vaultProgram, consts.GlobalStateTag)
	mintUsd, mintNonce := pda.MustDerive(vaultProgram, consts.UsdMintTag)
	return &World{
		Bank:             bank,
		VaultProgram:     vaultProgram,
		VenueProgram:     venueProgram,
		SuperOwner:       KeyFor("super-owner"),
		GlobalState:      gs,
		GlobalStateNonce: gsNonce,
		MintUsd:          mintUsd,
		MintUsdNonce:     mintNonce,
	}
}

func (w *World) Close() error {
	return w.Bank.Close()
}

func (w *World) exists(key types.Pubkey) bool {
	_, err := w.Bank.Account(key)
	return err == nil
}

func (w *World) execute(ctx context.Context, signers []types.Pubkey, ix core.Instruction) (*runtime.Receipt, error) {
	return w.Bank.Execute(ctx, &core.Transaction{Signers: signers, Instructions: []core.Instruction{ix}})
}

// Bootstrap 创建全局配置；已存在时直接返回
func (w *World) Bootstrap(ctx context.Context) error {
	if w.exists(w.GlobalState) {
		return nil
	}
	ix := protocol.CreateGlobalStateInstruction(w.VaultProgram,
		&protocol.GlobalStateAccounts{SuperOwner: w.SuperOwner, GlobalState: w.GlobalState, MintUsd: w.MintUsd},
		protocol.CreateGlobalStateArgs{GlobalStateNonce: w.GlobalStateNonce, MintUsdNonce: w.MintUsdNonce},
	)
	_, err := w.execute(ctx, []types.Pubkey{w.SuperOwner}, ix)
	if err != nil {
		return fmt.Errorf("create global state: %w", err)
	}
	logger.Infof("[Sandbox] global state created: %s, mint_usd=%s", w.GlobalState, w.MintUsd)
	return nil
}

// MarketParams 描述一种抵押资产及其质押池
type MarketParams struct {
	Name           string
	Decimals       uint8
	RiskLevel      uint8
	RewardPerCall  uint64 // 质押池每次调用结算的奖励
	RewardBPerCall uint64
	RewardFunding  uint64 // 质押池奖励账户的初始余额（A / B 相同）
}

// Market 是一种抵押资产在 vault 程序与质押池两侧的全部账户
type Market struct {
	Name string

	MintColl        types.Pubkey
	RewardMint      types.Pubkey
	RewardMintB     types.Pubkey
	TokenVault      types.Pubkey
	TokenVaultNonce uint8
	TokenColl       types.Pubkey
	TokenCollNonce  uint8

	Venue venue.VenueAccounts
}

func (w *World) marketKeys(name string) *Market {
	m := &Market{
		Name:        name,
		MintColl:    KeyFor("mint-coll:" + name),
		RewardMint:  KeyFor("reward-mint:" + name),
		RewardMintB: KeyFor("reward-mint-b:" + name),
	}
	m.TokenVault, m.TokenVaultNonce = pda.MustDerive(w.VaultProgram, consts.TokenVaultTag, m.MintColl)
	m.TokenColl, m.TokenCollNonce = pda.MustDerive(w.VaultProgram, consts.TokenVaultPoolTag, m.TokenVault)

	poolID := KeyFor("pool:" + name)
	poolAuthority, _ := pda.MustDerive(w.VenueProgram, venue.PoolAuthorityTag, poolID)
	m.Venue = venue.VenueAccounts{
		Program:        w.VenueProgram,
		PoolID:         poolID,
		PoolAuthority:  poolAuthority,
		AssociatedInfo: KeyFor("pool-info-assoc:" + name),
		PoolMain:       m.TokenVault,
		PoolLP:         m.TokenColl,
		VenueLP:        KeyFor("venue-lp:" + name),
		PoolReward:     KeyFor("pool-reward:" + name),
		VenueReward:    KeyFor("venue-reward:" + name),
		Clock:          consts.SysvarClock,
		TokenProgram:   consts.TokenProgram,
		PoolRewardB:    KeyFor("pool-reward-b:" + name),
		VenueRewardB:   KeyFor("venue-reward-b:" + name),
	}
	for i := range m.Venue.PoolInfo {
		m.Venue.PoolInfo[i] = KeyFor(fmt.Sprintf("pool-info-%d:%s", i+1, name))
	}
	return m
}

// AddMarket 创建抵押资产 mint、质押池与 vault；vault 已存在时只还原地址
func (w *World) AddMarket(ctx context.Context, p MarketParams) (*Market, error) {
	m := w.marketKeys(p.Name)
	if w.exists(m.TokenVault) {
		return m, nil
	}

	v := &m.Venue
	pool := &venue.PoolState{
		LPMint:         m.MintColl,
		VenueLP:        v.VenueLP,
		VenueReward:    v.VenueReward,
		VenueRewardB:   v.VenueRewardB,
		RewardPerCall:  p.RewardPerCall,
		RewardBPerCall: p.RewardBPerCall,
	}
	poolData, err := pool.Encode()
	if err != nil {
		return nil, err
	}

	genesis := []*runtime.Account{
		token.NewMintAccount(m.MintColl, w.SuperOwner, p.Decimals),
		token.NewMintAccount(m.RewardMint, w.SuperOwner, p.Decimals),
		token.NewMintAccount(m.RewardMintB, w.SuperOwner, p.Decimals),
		{Key: v.PoolID, Owner: w.VenueProgram, Data: poolData},
		{Key: v.AssociatedInfo, Owner: w.VenueProgram, Data: make([]byte, venue.StakeInfoSize)},
		token.NewTokenAccount(v.VenueLP, m.MintColl, v.PoolAuthority, 0),
		token.NewTokenAccount(v.VenueReward, m.RewardMint, v.PoolAuthority, p.RewardFunding),
		token.NewTokenAccount(v.VenueRewardB, m.RewardMintB, v.PoolAuthority, p.RewardFunding),
		// vault 托管的奖励账户，authority 为 vault PDA
		token.NewTokenAccount(v.PoolReward, m.RewardMint, m.TokenVault, 0),
		token.NewTokenAccount(v.PoolRewardB, m.RewardMintB, m.TokenVault, 0),
	}
	for _, info := range v.PoolInfo {
		genesis = append(genesis, &runtime.Account{Key: info, Owner: w.VenueProgram})
	}
	if err := w.Bank.SetAccounts(genesis...); err != nil {
		return nil, err
	}

	ix := protocol.CreateTokenVaultInstruction(w.VaultProgram,
		&protocol.TokenVaultAccounts{
			Payer:        w.SuperOwner,
			TokenVault:   m.TokenVault,
			GlobalState:  w.GlobalState,
			MintColl:     m.MintColl,
			TokenColl:    m.TokenColl,
			VenueProgram: w.VenueProgram,
		},
		protocol.CreateTokenVaultArgs{
			TokenVaultNonce:  m.TokenVaultNonce,
			GlobalStateNonce: w.GlobalStateNonce,
			TokenCollNonce:   m.TokenCollNonce,
			RiskLevel:        p.RiskLevel,
		},
	)
	if _, err := w.execute(ctx, []types.Pubkey{w.SuperOwner}, ix); err != nil {
		return nil, fmt.Errorf("create token vault %s: %w", p.Name, err)
	}
	logger.Infof("[Sandbox] market %s: vault=%s, pool=%s", p.Name, m.TokenVault, v.PoolID)
	return m, nil
}

// User 是一个持有抵押资产的用户及其 trove
type User struct {
	Name             string
	Owner            types.Pubkey
	UserTrove        types.Pubkey
	UserTroveNonce   uint8
	UserTokenColl    types.Pubkey
	UserRewardToken  types.Pubkey
	UserRewardTokenB types.Pubkey
}

func (w *World) userKeys(m *Market, name string) *User {
	owner := KeyFor("user:" + name)
	u := &User{
		Name:             name,
		Owner:            owner,
		UserTokenColl:    KeyFor("user-coll:" + m.Name + ":" + name),
		UserRewardToken:  KeyFor("user-reward:" + m.Name + ":" + name),
		UserRewardTokenB: KeyFor("user-reward-b:" + m.Name + ":" + name),
	}
	u.UserTrove, u.UserTroveNonce = pda.MustDerive(w.VaultProgram, consts.UserTroveTag, m.TokenVault, owner)
	return u
}

// AddUser 为用户准备 token 账户（抵押资产余额为 balance）并创建 trove；trove 已存在时只还原地址
func (w *World) AddUser(ctx context.Context, m *Market, name string, balance uint64) (*User, error) {
	u := w.userKeys(m, name)
	if w.exists(u.UserTrove) {
		return u, nil
	}
	if err := w.Bank.SetAccounts(
		token.NewTokenAccount(u.UserTokenColl, m.MintColl, u.Owner, balance),
		token.NewTokenAccount(u.UserRewardToken, m.RewardMint, u.Owner, 0),
		token.NewTokenAccount(u.UserRewardTokenB, m.RewardMintB, u.Owner, 0),
	); err != nil {
		return nil, err
	}

	ix := protocol.CreateUserTroveInstruction(w.VaultProgram,
		&protocol.UserTroveAccounts{Owner: u.Owner, UserTrove: u.UserTrove, TokenVault: m.TokenVault, MintColl: m.MintColl},
		protocol.CreateUserTroveArgs{UserTroveNonce: u.UserTroveNonce, TokenVaultNonce: m.TokenVaultNonce},
	)
	if _, err := w.execute(ctx, []types.Pubkey{u.Owner}, ix); err != nil {
		return nil, fmt.Errorf("create user trove %s: %w", name, err)
	}
	return u, nil
}

// CollateralAccounts 组装 deposit / withdraw 的账户上下文
func (w *World) CollateralAccounts(m *Market, u *User, withRewardB bool) *protocol.CollateralAccounts {
	a := &protocol.CollateralAccounts{
		Owner:           u.Owner,
		UserTrove:       u.UserTrove,
		TokenVault:      m.TokenVault,
		PoolTokenColl:   m.TokenColl,
		UserTokenColl:   u.UserTokenColl,
		MintColl:        m.MintColl,
		UserRewardToken: u.UserRewardToken,
		Venue:           m.Venue,
	}
	if withRewardB {
		a.UserRewardTokenB = u.UserRewardTokenB
	}
	return a
}

func (w *World) collateralArgs(m *Market, u *User, amount uint64) protocol.CollateralArgs {
	return protocol.CollateralArgs{
		Amount:          amount,
		TokenVaultNonce: m.TokenVaultNonce,
		UserTroveNonce:  u.UserTroveNonce,
		TokenCollNonce:  m.TokenCollNonce,
	}
}

func (w *World) depositInstruction(m *Market, u *User, amount uint64, withRewardB bool) core.Instruction {
	return protocol.DepositCollateralInstruction(w.VaultProgram, w.CollateralAccounts(m, u, withRewardB), w.collateralArgs(m, u, amount))
}

func (w *World) withdrawInstruction(m *Market, u *User, amount uint64, withRewardB bool) core.Instruction {
	return protocol.WithdrawCollateralInstruction(w.VaultProgram, w.CollateralAccounts(m, u, withRewardB), w.collateralArgs(m, u, amount))
}

func (w *World) Deposit(ctx context.Context, m *Market, u *User, amount uint64, withRewardB bool) (*runtime.Receipt, error) {
	return w.execute(ctx, []types.Pubkey{u.Owner}, w.depositInstruction(m, u, amount, withRewardB))
}

func (w *World) Withdraw(ctx context.Context, m *Market, u *User, amount uint64, withRewardB bool) (*runtime.Receipt, error) {
	return w.execute(ctx, []types.Pubkey{u.Owner}, w.withdrawInstruction(m, u, amount, withRewardB))
}

// SetVenuePaused 直接修改质押池状态（模拟场所拒绝服务）
func (w *World) SetVenuePaused(m *Market, paused bool) error {
	acc, err := w.Bank.Account(m.Venue.PoolID)
	if err != nil {
		return err
	}
	pool, err := venue.DecodePoolState(acc.Data)
	if err != nil {
		return err
	}
	pool.Paused = paused
	if acc.Data, err = pool.Encode(); err != nil {
		return err
	}
	return w.Bank.SetAccounts(acc)
}
