package token

import (
	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// TransferInstruction 构造 SPL Token Transfer 指令（authority 为 owner 或可由 PDA seed 证明的地址）
func TransferInstruction(from, to, authority types.Pubkey, amount uint64) core.Instruction {
	ix := sdktoken.Transfer(sdktoken.TransferParam{
		From:    from.Common(),
		To:      to.Common(),
		Auth:    authority.Common(),
		Signers: []common.PublicKey{},
		Amount:  amount,
	})
	// 统一使用本系统配置的 Token Program 地址
	out := core.InstructionFromSDK(ix)
	out.ProgramID = consts.TokenProgram
	return out
}

// InitializeAccount3Instruction 构造 InitializeAccount3：owner 写在指令数据中，无需 rent sysvar
func InitializeAccount3Instruction(account, mint, owner types.Pubkey) core.Instruction {
	data := make([]byte, 33)
	data[0] = byte(sdktoken.InstructionInitializeAccount3)
	copy(data[1:], owner[:])
	return core.Instruction{
		ProgramID: consts.TokenProgram,
		Accounts: []core.AccountMeta{
			core.Writable(account),
			core.Readonly(mint),
		},
		Data: data,
	}
}

// InitializeMint2Instruction 构造 InitializeMint2（不设置 freeze authority）
func InitializeMint2Instruction(mint, authority types.Pubkey, decimals uint8) core.Instruction {
	data := make([]byte, 35)
	data[0] = instructionInitializeMint2
	data[1] = decimals
	copy(data[2:34], authority[:])
	data[34] = 0
	return core.Instruction{
		ProgramID: consts.TokenProgram,
		Accounts:  []core.AccountMeta{core.Writable(mint)},
		Data:      data,
	}
}
