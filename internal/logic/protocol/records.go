package protocol

import (
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/state"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/types"
)

// 账户加载与约束检查

func loadOwned(ctx *runtime.InvokeContext, key types.Pubkey, name string) (*runtime.Account, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		return nil, err
	}
	if acc.Owner != ctx.ProgramID() {
		return nil, fmt.Errorf("%w: %s %s owned by %s", core.ErrInvalidAccountData, name, key, acc.Owner)
	}
	return acc, nil
}

func loadGlobalState(ctx *runtime.InvokeContext, key types.Pubkey) (*state.GlobalState, error) {
	acc, err := loadOwned(ctx, key, "global_state")
	if err != nil {
		return nil, err
	}
	return state.DecodeGlobalState(acc.Data)
}

func loadTokenVault(ctx *runtime.InvokeContext, key types.Pubkey) (*state.TokenVault, error) {
	acc, err := loadOwned(ctx, key, "token_vault")
	if err != nil {
		return nil, err
	}
	return state.DecodeTokenVault(acc.Data)
}

func loadUserTrove(ctx *runtime.InvokeContext, key types.Pubkey) (*state.UserTrove, error) {
	acc, err := loadOwned(ctx, key, "user_trove")
	if err != nil {
		return nil, err
	}
	return state.DecodeUserTrove(acc.Data)
}

type encoder interface {
	Encode() ([]byte, error)
}

func save(ctx *runtime.InvokeContext, key types.Pubkey, record encoder) error {
	data, err := record.Encode()
	if err != nil {
		return err
	}
	return ctx.SetData(key, data)
}

// loadTokenAccount 读取 token 账户并校验 authority 与 mint（零值 mint 表示不校验）
func loadTokenAccount(ctx *runtime.InvokeContext, key, authority, mint types.Pubkey, name string) (*token.TokenAccount, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		return nil, err
	}
	if acc.Owner != consts.TokenProgram {
		return nil, fmt.Errorf("%w: %s %s is not a token account", core.ErrInvalidAccountData, name, key)
	}
	ta, err := token.DecodeTokenAccount(acc.Data)
	if err != nil {
		return nil, err
	}
	if ta.Owner != authority {
		return nil, fmt.Errorf("%w: %s authority %s, want %s", core.ErrAuthorizationMismatch, name, ta.Owner, authority)
	}
	if !mint.IsZero() && ta.Mint != mint {
		return nil, fmt.Errorf("%w: %s mint %s, want %s", core.ErrInvalidAccountData, name, ta.Mint, mint)
	}
	return ta, nil
}
