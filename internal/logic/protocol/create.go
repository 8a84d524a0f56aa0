package protocol

import (
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/state"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/types"
)

func requireSigner(ctx *runtime.InvokeContext, key types.Pubkey) error {
	if !ctx.IsSigner(key) {
		return fmt.Errorf("%w: %s did not sign", core.ErrAuthorizationMismatch, key)
	}
	return nil
}

// createGlobalState 创建全局配置与稳定币 Mint（mint authority 为 global_state PDA）
func createGlobalState(ctx *runtime.InvokeContext, a *GlobalStateAccounts, args CreateGlobalStateArgs) error {
	program := ctx.ProgramID()
	if err := requireSigner(ctx, a.SuperOwner); err != nil {
		return err
	}
	gsSeeds, err := pda.Check(program, a.GlobalState, consts.GlobalStateTag, args.GlobalStateNonce)
	if err != nil {
		return err
	}
	mintSeeds, err := pda.Check(program, a.MintUsd, consts.UsdMintTag, args.MintUsdNonce)
	if err != nil {
		return err
	}

	if err := ctx.CreateAccount(a.GlobalState, program, state.GlobalStateSize, gsSeeds.SignerSeeds()); err != nil {
		return err
	}
	if err := ctx.CreateAccount(a.MintUsd, consts.TokenProgram, consts.MintAccountSize, mintSeeds.SignerSeeds()); err != nil {
		return err
	}
	if err := ctx.Invoke(token.InitializeMint2Instruction(a.MintUsd, a.GlobalState, consts.UsdDecimals)); err != nil {
		return err
	}

	gs := &state.GlobalState{SuperOwner: a.SuperOwner, MintUsd: a.MintUsd}
	if err := save(ctx, a.GlobalState, gs); err != nil {
		return err
	}
	ctx.Emit(core.Event{Type: core.EventGlobalStateCreated, Owner: a.SuperOwner, Mint: a.MintUsd})
	return nil
}

// createTokenVault 为一种抵押资产创建 vault 与托管池，仅 super owner 可调用
func createTokenVault(ctx *runtime.InvokeContext, a *TokenVaultAccounts, args CreateTokenVaultArgs) error {
	program := ctx.ProgramID()
	if err := requireSigner(ctx, a.Payer); err != nil {
		return err
	}
	if args.RiskLevel > consts.MaxRiskLevel {
		return fmt.Errorf("%w: risk level %d > %d", core.ErrInvalidInstructionData, args.RiskLevel, consts.MaxRiskLevel)
	}

	if _, err := pda.Check(program, a.GlobalState, consts.GlobalStateTag, args.GlobalStateNonce); err != nil {
		return err
	}
	gs, err := loadGlobalState(ctx, a.GlobalState)
	if err != nil {
		return err
	}
	if gs.SuperOwner != a.Payer {
		return fmt.Errorf("%w: %s is not the super owner", core.ErrAuthorizationMismatch, a.Payer)
	}

	mintAcc, err := ctx.Account(a.MintColl)
	if err != nil {
		return err
	}
	if mintAcc.Owner != consts.TokenProgram {
		return fmt.Errorf("%w: mint_coll %s is not a mint", core.ErrInvalidAccountData, a.MintColl)
	}
	if m, err := token.DecodeMint(mintAcc.Data); err != nil {
		return err
	} else if !m.Initialized {
		return fmt.Errorf("%w: mint_coll %s not initialized", core.ErrInvalidAccountData, a.MintColl)
	}
	if a.VenueProgram.IsZero() || a.VenueProgram == program {
		return fmt.Errorf("%w: venue program %s", core.ErrInvalidAccountData, a.VenueProgram)
	}

	vaultSeeds, err := pda.Check(program, a.TokenVault, consts.TokenVaultTag, args.TokenVaultNonce, a.MintColl)
	if err != nil {
		return err
	}
	collSeeds, err := pda.Check(program, a.TokenColl, consts.TokenVaultPoolTag, args.TokenCollNonce, a.TokenVault)
	if err != nil {
		return err
	}

	if err := ctx.CreateAccount(a.TokenVault, program, state.TokenVaultSize, vaultSeeds.SignerSeeds()); err != nil {
		return err
	}
	if err := ctx.CreateAccount(a.TokenColl, consts.TokenProgram, consts.TokenAccountSize, collSeeds.SignerSeeds()); err != nil {
		return err
	}
	if err := ctx.Invoke(token.InitializeAccount3Instruction(a.TokenColl, a.MintColl, a.TokenVault)); err != nil {
		return err
	}

	vault := &state.TokenVault{
		MintColl:     a.MintColl,
		TokenColl:    a.TokenColl,
		VenueProgram: a.VenueProgram,
		RiskLevel:    args.RiskLevel,
	}
	if err := save(ctx, a.TokenVault, vault); err != nil {
		return err
	}
	ctx.Emit(core.Event{Type: core.EventTokenVaultCreated, Owner: a.Payer, Vault: a.TokenVault, Mint: a.MintColl})
	return nil
}

// createUserTrove 为 (vault, owner) 创建仓位
func createUserTrove(ctx *runtime.InvokeContext, a *UserTroveAccounts, args CreateUserTroveArgs) error {
	program := ctx.ProgramID()
	if err := requireSigner(ctx, a.Owner); err != nil {
		return err
	}
	vault, err := loadTokenVault(ctx, a.TokenVault)
	if err != nil {
		return err
	}
	if a.MintColl != vault.MintColl {
		return fmt.Errorf("%w: mint_coll %s, vault expects %s", core.ErrInvalidAccountData, a.MintColl, vault.MintColl)
	}
	if _, err := pda.Check(program, a.TokenVault, consts.TokenVaultTag, args.TokenVaultNonce, vault.MintColl); err != nil {
		return err
	}
	troveSeeds, err := pda.Check(program, a.UserTrove, consts.UserTroveTag, args.UserTroveNonce, a.TokenVault, a.Owner)
	if err != nil {
		return err
	}

	if err := ctx.CreateAccount(a.UserTrove, program, state.UserTroveSize, troveSeeds.SignerSeeds()); err != nil {
		return err
	}
	trove := &state.UserTrove{Owner: a.Owner, Vault: a.TokenVault}
	if err := save(ctx, a.UserTrove, trove); err != nil {
		return err
	}
	ctx.Emit(core.Event{Type: core.EventUserTroveCreated, Owner: a.Owner, Vault: a.TokenVault, Mint: vault.MintColl})
	return nil
}
