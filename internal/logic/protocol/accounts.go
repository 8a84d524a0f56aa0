package protocol

import (
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/bridge"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"
)

// GlobalStateAccounts
// Layout: [super_owner(S,W), global_state(W), mint_usd(W), system_program, token_program]
type GlobalStateAccounts struct {
	SuperOwner  types.Pubkey
	GlobalState types.Pubkey
	MintUsd     types.Pubkey
}

func (a *GlobalStateAccounts) metas() []core.AccountMeta {
	return []core.AccountMeta{
		core.WritableSigner(a.SuperOwner),
		core.Writable(a.GlobalState),
		core.Writable(a.MintUsd),
		core.Readonly(consts.SystemProgram),
		core.Readonly(consts.TokenProgram),
	}
}

func parseGlobalStateAccounts(ix *core.Instruction) (*GlobalStateAccounts, error) {
	if err := requireAccounts(ix, 5); err != nil {
		return nil, err
	}
	if err := requireProgram(ix, 4, consts.TokenProgram); err != nil {
		return nil, err
	}
	return &GlobalStateAccounts{
		SuperOwner:  ix.Accounts[0].Pubkey,
		GlobalState: ix.Accounts[1].Pubkey,
		MintUsd:     ix.Accounts[2].Pubkey,
	}, nil
}

// TokenVaultAccounts
// Layout: [payer(S,W), token_vault(W), global_state, mint_coll, token_coll(W), venue_program, system_program, token_program]
type TokenVaultAccounts struct {
	Payer        types.Pubkey
	TokenVault   types.Pubkey
	GlobalState  types.Pubkey
	MintColl     types.Pubkey
	TokenColl    types.Pubkey
	VenueProgram types.Pubkey
}

func (a *TokenVaultAccounts) metas() []core.AccountMeta {
	return []core.AccountMeta{
		core.WritableSigner(a.Payer),
		core.Writable(a.TokenVault),
		core.Readonly(a.GlobalState),
		core.Readonly(a.MintColl),
		core.Writable(a.TokenColl),
		core.Readonly(a.VenueProgram),
		core.Readonly(consts.SystemProgram),
		core.Readonly(consts.TokenProgram),
	}
}

func parseTokenVaultAccounts(ix *core.Instruction) (*TokenVaultAccounts, error) {
	if err := requireAccounts(ix, 8); err != nil {
		return nil, err
	}
	if err := requireProgram(ix, 7, consts.TokenProgram); err != nil {
		return nil, err
	}
	return &TokenVaultAccounts{
		Payer:        ix.Accounts[0].Pubkey,
		TokenVault:   ix.Accounts[1].Pubkey,
		GlobalState:  ix.Accounts[2].Pubkey,
		MintColl:     ix.Accounts[3].Pubkey,
		TokenColl:    ix.Accounts[4].Pubkey,
		VenueProgram: ix.Accounts[5].Pubkey,
	}, nil
}

// UserTroveAccounts
// Layout: [trove_owner(S,W), user_trove(W), token_vault, mint_coll, system_program]
type UserTroveAccounts struct {
	Owner      types.Pubkey
	UserTrove  types.Pubkey
	TokenVault types.Pubkey
	MintColl   types.Pubkey
}

func (a *UserTroveAccounts) metas() []core.AccountMeta {
	return []core.AccountMeta{
		core.WritableSigner(a.Owner),
		core.Writable(a.UserTrove),
		core.Readonly(a.TokenVault),
		core.Readonly(a.MintColl),
		core.Readonly(consts.SystemProgram),
	}
}

func parseUserTroveAccounts(ix *core.Instruction) (*UserTroveAccounts, error) {
	if err := requireAccounts(ix, 5); err != nil {
		return nil, err
	}
	return &UserTroveAccounts{
		Owner:      ix.Accounts[0].Pubkey,
		UserTrove:  ix.Accounts[1].Pubkey,
		TokenVault: ix.Accounts[2].Pubkey,
		MintColl:   ix.Accounts[3].Pubkey,
	}, nil
}

// collateralFixedAccounts 是 deposit / withdraw 中 venue 账户之前的固定账户数
const collateralFixedAccounts = 9

// CollateralAccounts 是 deposit_collateral / withdraw_collateral 的账户上下文。
//
// Layout:
//
//	#0  owner(S)
//	#1  user_trove(W)
//	#2  token_vault(W)
//	#3  pool_token_coll(W)
//	#4  user_token_coll(W)
//	#5  mint_coll
//	#6  user_reward_token(W)
//	#7  token_program
//	#8  venue_program
//	#9~#25  质押场所 17 个账户（顺序同 bridge.VenueAccounts）
//	#26 user_reward_token_b(W)，可选
type CollateralAccounts struct {
	Owner            types.Pubkey
	UserTrove        types.Pubkey
	TokenVault       types.Pubkey
	PoolTokenColl    types.Pubkey
	UserTokenColl    types.Pubkey
	MintColl         types.Pubkey
	UserRewardToken  types.Pubkey
	UserRewardTokenB types.Pubkey // 零值表示不收取第二奖励
	Venue            bridge.VenueAccounts
}

func (a *CollateralAccounts) metas() []core.AccountMeta {
	metas := []core.AccountMeta{
		core.ReadonlySigner(a.Owner),
		core.Writable(a.UserTrove),
		core.Writable(a.TokenVault),
		core.Writable(a.PoolTokenColl),
		core.Writable(a.UserTokenColl),
		core.Readonly(a.MintColl),
		core.Writable(a.UserRewardToken),
		core.Readonly(consts.TokenProgram),
		core.Readonly(a.Venue.Program),
	}
	// pool main 账户由程序通过 PDA 签名，外层指令中不带签名标记
	for _, m := range a.Venue.Metas() {
		m.IsSigner = false
		metas = append(metas, m)
	}
	if !a.UserRewardTokenB.IsZero() {
		metas = append(metas, core.Writable(a.UserRewardTokenB))
	}
	return metas
}

func parseCollateralAccounts(ix *core.Instruction) (*CollateralAccounts, error) {
	total := collateralFixedAccounts + consts.VenueAccountListLen
	if err := requireAccounts(ix, total); err != nil {
		return nil, err
	}
	if err := requireProgram(ix, 7, consts.TokenProgram); err != nil {
		return nil, err
	}

	keys := make([]types.Pubkey, consts.VenueAccountListLen)
	for i := range keys {
		keys[i] = ix.Accounts[collateralFixedAccounts+i].Pubkey
	}
	venue, err := bridge.VenueAccountsFromKeys(ix.Accounts[8].Pubkey, keys)
	if err != nil {
		return nil, err
	}

	a := &CollateralAccounts{
		Owner:           ix.Accounts[0].Pubkey,
		UserTrove:       ix.Accounts[1].Pubkey,
		TokenVault:      ix.Accounts[2].Pubkey,
		PoolTokenColl:   ix.Accounts[3].Pubkey,
		UserTokenColl:   ix.Accounts[4].Pubkey,
		MintColl:        ix.Accounts[5].Pubkey,
		UserRewardToken: ix.Accounts[6].Pubkey,
		Venue:           *venue,
	}
	if len(ix.Accounts) > total {
		a.UserRewardTokenB = ix.Accounts[total].Pubkey
	}
	return a, nil
}

func requireAccounts(ix *core.Instruction, n int) error {
	if len(ix.Accounts) < n {
		return fmt.Errorf("%w: need %d accounts, got %d", core.ErrInvalidInstructionData, n, len(ix.Accounts))
	}
	return nil
}

func requireProgram(ix *core.Instruction, i int, program types.Pubkey) error {
	if key, _ := ix.AccountKey(i); key != program {
		return fmt.Errorf("%w: account #%d is %s, want %s", core.ErrInvalidAccountData, i, key, program)
	}
	return nil
}
