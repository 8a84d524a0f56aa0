package protocol

import (
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"
)

// 客户端指令构造

func CreateGlobalStateInstruction(programID types.Pubkey, accounts *GlobalStateAccounts, args CreateGlobalStateArgs) core.Instruction {
	return core.Instruction{
		ProgramID: programID,
		Accounts:  accounts.metas(),
		Data:      encodeInstruction(KindCreateGlobalState, args),
	}
}

func CreateTokenVaultInstruction(programID types.Pubkey, accounts *TokenVaultAccounts, args CreateTokenVaultArgs) core.Instruction {
	return core.Instruction{
		ProgramID: programID,
		Accounts:  accounts.metas(),
		Data:      encodeInstruction(KindCreateTokenVault, args),
	}
}

func CreateUserTroveInstruction(programID types.Pubkey, accounts *UserTroveAccounts, args CreateUserTroveArgs) core.Instruction {
	return core.Instruction{
		ProgramID: programID,
		Accounts:  accounts.metas(),
		Data:      encodeInstruction(KindCreateUserTrove, args),
	}
}

func DepositCollateralInstruction(programID types.Pubkey, accounts *CollateralAccounts, args CollateralArgs) core.Instruction {
	return core.Instruction{
		ProgramID: programID,
		Accounts:  accounts.metas(),
		Data:      encodeInstruction(KindDepositCollateral, args),
	}
}

func WithdrawCollateralInstruction(programID types.Pubkey, accounts *CollateralAccounts, args CollateralArgs) core.Instruction {
	return core.Instruction{
		ProgramID: programID,
		Accounts:  accounts.metas(),
		Data:      encodeInstruction(KindWithdrawCollateral, args),
	}
}
