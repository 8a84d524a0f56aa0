package sandbox

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/types"
)

// journalTag 操作日志条目 PDA 的 seed 前缀：[tag, sha256(op_id)]
const journalTag = "op-journal-seed"

// ErrOpAlreadyApplied 表示该操作 id 已随某笔交易提交过
var ErrOpAlreadyApplied = errors.New("operation already applied")

// JournalProgram 记录已提交的操作 id，与业务指令放在同一笔交易中，随交易一起提交或回滚
var JournalProgram = KeyFor("op-journal-program")

func journalEntry(opID string) (types.Pubkey, uint8) {
	return pda.MustDerive(JournalProgram, journalTag, types.Pubkey(sha256.Sum256([]byte(opID))))
}

// JournalInstruction 构造记录 opID 的指令。Data: [bump, op_id...]
func JournalInstruction(opID string) core.Instruction {
	entry, bump := journalEntry(opID)
	data := make([]byte, 0, 1+len(opID))
	data = append(data, bump)
	data = append(data, opID...)
	return core.Instruction{
		ProgramID: JournalProgram,
		Accounts:  []core.AccountMeta{core.Writable(entry)},
		Data:      data,
	}
}

func processJournal(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	if len(ix.Data) < 2 || len(ix.Accounts) < 1 {
		return fmt.Errorf("%w: journal instruction", core.ErrInvalidInstructionData)
	}
	bump, opID := ix.Data[0], string(ix.Data[1:])
	entry := ix.Accounts[0].Pubkey

	seeds, err := pda.Check(JournalProgram, entry, journalTag, bump, types.Pubkey(sha256.Sum256([]byte(opID))))
	if err != nil {
		return err
	}
	if ctx.Exists(entry) {
		return fmt.Errorf("%w: %w: op %s", ErrOpAlreadyApplied, core.ErrAccountAlreadyInUse, opID)
	}
	if err := ctx.CreateAccount(entry, JournalProgram, len(opID), seeds.SignerSeeds()); err != nil {
		return err
	}
	return ctx.SetData(entry, []byte(opID))
}

// Journaled 判断 opID 是否已随某笔交易提交
func (w *World) Journaled(opID string) bool {
	entry, _ := journalEntry(opID)
	return w.exists(entry)
}

// DepositOnce 与 Deposit 相同，但在同一交易中写入操作日志；同一 opID 只会提交一次
func (w *World) DepositOnce(ctx context.Context, opID string, m *Market, u *User, amount uint64, withRewardB bool) (*runtime.Receipt, error) {
	return w.executeOnce(ctx, opID, u, w.depositInstruction(m, u, amount, withRewardB))
}

// WithdrawOnce 与 Withdraw 相同，但在同一交易中写入操作日志；同一 opID 只会提交一次
func (w *World) WithdrawOnce(ctx context.Context, opID string, m *Market, u *User, amount uint64, withRewardB bool) (*runtime.Receipt, error) {
	return w.executeOnce(ctx, opID, u, w.withdrawInstruction(m, u, amount, withRewardB))
}

func (w *World) executeOnce(ctx context.Context, opID string, u *User, ix core.Instruction) (*runtime.Receipt, error) {
	return w.Bank.Execute(ctx, &core.Transaction{
		Signers:      []types.Pubkey{u.Owner},
		Instructions: []core.Instruction{JournalInstruction(opID), ix},
	})
}
