package token

import (
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/types"
)

// Transfer 通过 CPI 调用 Token Program 转账。
// authority 为外部签名者时 signerSeeds 为空；为调用方 PDA 时传入对应 seed。
func Transfer(ctx *runtime.InvokeContext, from, to, authority types.Pubkey, amount uint64, signerSeeds ...[][]byte) error {
	return ctx.InvokeSigned(TransferInstruction(from, to, authority, amount), signerSeeds...)
}

// BalanceOf 读取当前指令可见的 token 账户余额（包含本交易内尚未提交的修改）
func BalanceOf(ctx *runtime.InvokeContext, key types.Pubkey) (uint64, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		return 0, err
	}
	return Balance(acc)
}
