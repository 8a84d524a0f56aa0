package runtime

import (
	"context"
	"errors"
	"testing"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) types.Pubkey {
	var k types.Pubkey
	k[0] = b
	return k
}

var (
	counterProgram = testKey(100)
	callerProgram  = testKey(101)
	counterAcc     = testKey(1)
	user           = testKey(2)
)

// counter 程序：Data[0] 自增；指令数据为 0xFF 时在写入后失败
func counter(ctx *InvokeContext, ix *core.Instruction) error {
	acc, err := ctx.Account(counterAcc)
	if err != nil {
		return err
	}
	acc.Data[0]++
	if err := ctx.SetData(counterAcc, acc.Data); err != nil {
		return err
	}
	ctx.Emit(core.Event{Type: core.EventCollateralDeposited, Amount: uint64(acc.Data[0])})
	if len(ix.Data) > 0 && ix.Data[0] == 0xFF {
		return errors.New("counter: forced failure")
	}
	return nil
}

func counterIx(fail bool) core.Instruction {
	ix := core.Instruction{
		ProgramID: counterProgram,
		Accounts:  []core.AccountMeta{core.Writable(counterAcc)},
	}
	if fail {
		ix.Data = []byte{0xFF}
	}
	return ix
}

func newCounterBank(t *testing.T, store AccountStore) *Bank {
	bank := NewBank(store)
	bank.RegisterProgram(counterProgram, ProgramFunc(counter))
	require.NoError(t, bank.SetAccounts(&Account{Key: counterAcc, Owner: counterProgram, Data: []byte{0}}))
	return bank
}

func counterValue(t *testing.T, bank *Bank) byte {
	acc, err := bank.Account(counterAcc)
	require.NoError(t, err)
	return acc.Data[0]
}

func TestExecuteCommitsAllInstructions(t *testing.T) {
	bank := newCounterBank(t, NewMemStore())
	receipt, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{counterIx(false), counterIx(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, byte(2), counterValue(t, bank))
	require.Len(t, receipt.Events, 2)
	assert.Equal(t, counterProgram, receipt.Events[0].Program)
}

func TestExecuteRollsBackOnFailure(t *testing.T) {
	bank := newCounterBank(t, NewMemStore())
	receipt, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{counterIx(false), counterIx(true)},
	})
	require.Error(t, err)
	assert.Equal(t, byte(0), counterValue(t, bank), "失败交易的所有写入都应被丢弃")
	assert.Empty(t, receipt.Events)
	assert.NotEmpty(t, receipt.Logs)
	assert.Equal(t, err, receipt.Err)
}

func TestExecuteRollsBackSwallowedCPIFailure(t *testing.T) {
	bank := newCounterBank(t, NewMemStore())
	// 调用方吞掉 CPI 错误也无法提交
	bank.RegisterProgram(callerProgram, ProgramFunc(func(ctx *InvokeContext, ix *core.Instruction) error {
		_ = ctx.Invoke(counterIx(true))
		return nil
	}))

	_, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{{
			ProgramID: callerProgram,
			Accounts:  []core.AccountMeta{core.Writable(counterAcc), core.Readonly(counterProgram)},
		}},
	})
	require.Error(t, err)
	assert.Equal(t, byte(0), counterValue(t, bank))
}

func TestInvokeRejectsPrivilegeEscalation(t *testing.T) {
	bank := newCounterBank(t, NewMemStore())
	bank.RegisterProgram(callerProgram, ProgramFunc(func(ctx *InvokeContext, ix *core.Instruction) error {
		return ctx.Invoke(counterIx(false))
	}))

	// counterAcc 在调用方中只读，CPI 中不能升级为可写
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{{
			ProgramID: callerProgram,
			Accounts:  []core.AccountMeta{core.Readonly(counterAcc), core.Readonly(counterProgram)},
		}},
	})
	assert.True(t, errors.Is(err, core.ErrAuthorizationMismatch))

	// 签名权同理
	bank.RegisterProgram(callerProgram, ProgramFunc(func(ctx *InvokeContext, ix *core.Instruction) error {
		cpi := counterIx(false)
		cpi.Accounts = append(cpi.Accounts, core.ReadonlySigner(user))
		return ctx.Invoke(cpi)
	}))
	_, err = bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{{
			ProgramID: callerProgram,
			Accounts:  []core.AccountMeta{core.Writable(counterAcc), core.Readonly(user), core.Readonly(counterProgram)},
		}},
	})
	assert.True(t, errors.Is(err, core.ErrAuthorizationMismatch))
	assert.Equal(t, byte(0), counterValue(t, bank))
}

func TestSetDataRequiresOwnership(t *testing.T) {
	bank := newCounterBank(t, NewMemStore())
	bank.RegisterProgram(callerProgram, ProgramFunc(func(ctx *InvokeContext, ix *core.Instruction) error {
		return ctx.SetData(counterAcc, []byte{9})
	}))
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{{
			ProgramID: callerProgram,
			Accounts:  []core.AccountMeta{core.Writable(counterAcc)},
		}},
	})
	assert.True(t, errors.Is(err, core.ErrAuthorizationMismatch))
}

func TestExecuteUnknownProgram(t *testing.T) {
	bank := NewBank(NewMemStore())
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{{ProgramID: testKey(55)}},
	})
	assert.True(t, errors.Is(err, core.ErrUnknownInstruction))
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	bank := newCounterBank(t, NewMemStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := bank.Execute(ctx, &core.Transaction{Instructions: []core.Instruction{counterIx(false)}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, byte(0), counterValue(t, bank))
}

func TestLevelStorePersistsCommittedAccounts(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLevelStore(dir)
	require.NoError(t, err)

	bank := newCounterBank(t, store)
	_, err = bank.Execute(context.Background(), &core.Transaction{Instructions: []core.Instruction{counterIx(false)}})
	require.NoError(t, err)
	_, err = bank.Execute(context.Background(), &core.Transaction{Instructions: []core.Instruction{counterIx(true)}})
	require.Error(t, err)
	require.NoError(t, bank.Close())

	reopened, err := NewLevelStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	acc, err := reopened.Get(counterAcc)
	require.NoError(t, err)
	assert.Equal(t, counterProgram, acc.Owner)
	assert.Equal(t, []byte{1}, acc.Data)

	_, err = reopened.Get(user)
	assert.True(t, errors.Is(err, core.ErrAccountNotFound))
}
