package protocol

import (
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/runtime"
)

// Program 是抵押金库程序：记录初始化与抵押物存取。
// Program ID 由运行时注入（ctx.ProgramID），同一实现可注册在任意地址。
type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) Process(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	kind, err := DecodeKind(ix.Data)
	if err != nil {
		return err
	}
	ctx.Logf("Instruction: %s", kind)

	switch kind {
	case KindCreateGlobalState:
		var args CreateGlobalStateArgs
		if err := decodeArgs(ix.Data, &args); err != nil {
			return err
		}
		accounts, err := parseGlobalStateAccounts(ix)
		if err != nil {
			return err
		}
		return createGlobalState(ctx, accounts, args)

	case KindCreateTokenVault:
		var args CreateTokenVaultArgs
		if err := decodeArgs(ix.Data, &args); err != nil {
			return err
		}
		accounts, err := parseTokenVaultAccounts(ix)
		if err != nil {
			return err
		}
		return createTokenVault(ctx, accounts, args)

	case KindCreateUserTrove:
		var args CreateUserTroveArgs
		if err := decodeArgs(ix.Data, &args); err != nil {
			return err
		}
		accounts, err := parseUserTroveAccounts(ix)
		if err != nil {
			return err
		}
		return createUserTrove(ctx, accounts, args)

	case KindDepositCollateral, KindWithdrawCollateral:
		var args CollateralArgs
		if err := decodeArgs(ix.Data, &args); err != nil {
			return err
		}
		accounts, err := parseCollateralAccounts(ix)
		if err != nil {
			return err
		}
		if kind == KindDepositCollateral {
			return depositCollateral(ctx, accounts, args)
		}
		return withdrawCollateral(ctx, accounts, args)

	default:
		return fmt.Errorf("%w: %s", core.ErrUnknownInstruction, kind)
	}
}
