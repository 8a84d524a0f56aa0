package core

import (
	"stablecoin-vault-sol/internal/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// AccountMeta 描述指令中的一个账户及其权限标记（签名 / 可写）
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsSigner   bool
	IsWritable bool
}

func Writable(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key, IsWritable: true}
}

func Readonly(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key}
}

func WritableSigner(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: true, IsWritable: true}
}

func ReadonlySigner(key types.Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: true}
}

// Instruction 表示一条待执行的指令（主指令或 CPI 调用）。
type Instruction struct {
	ProgramID types.Pubkey  // 所调用的程序地址
	Accounts  []AccountMeta // 指令涉及的账户列表，保持原始顺序
	Data      []byte        // 指令数据
}

// AccountKey 返回第 i 个账户地址，越界时返回 false
func (ix *Instruction) AccountKey(i int) (types.Pubkey, bool) {
	if i < 0 || i >= len(ix.Accounts) {
		return types.Pubkey{}, false
	}
	return ix.Accounts[i].Pubkey, true
}

// InstructionFromSDK 将 solana-go-sdk 构造的指令转换为内部表示
func InstructionFromSDK(ix sdktypes.Instruction) Instruction {
	metas := make([]AccountMeta, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		metas = append(metas, AccountMeta{
			Pubkey:     types.PubkeyFromCommon(m.PubKey),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	return Instruction{
		ProgramID: types.PubkeyFromCommon(ix.ProgramID),
		Accounts:  metas,
		Data:      ix.Data,
	}
}

// Transaction 表示一次原子调用：所有指令要么全部生效，要么全部回滚。
type Transaction struct {
	Signers      []types.Pubkey // 交易签名者（持有私钥的外部账户）
	Instructions []Instruction
}
