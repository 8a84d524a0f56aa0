package token

import (
	"context"
	"errors"
	"testing"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) types.Pubkey {
	var k types.Pubkey
	k[0] = b
	k[31] = 0xA5
	return k
}

var (
	mint  = key(1)
	alice = key(2)
	bob   = key(3)
	accA  = key(4)
	accB  = key(5)
)

func newTestBank(t *testing.T) *runtime.Bank {
	bank := runtime.NewBank(runtime.NewMemStore())
	bank.RegisterProgram(consts.TokenProgram, NewProgram())
	require.NoError(t, bank.SetAccounts(
		NewMintAccount(mint, alice, 6),
		NewTokenAccount(accA, mint, alice, 1000),
		NewTokenAccount(accB, mint, bob, 0),
	))
	return bank
}

func balanceOf(t *testing.T, bank *runtime.Bank, k types.Pubkey) uint64 {
	acc, err := bank.Account(k)
	require.NoError(t, err)
	bal, err := Balance(acc)
	require.NoError(t, err)
	return bal
}

func TestTransfer(t *testing.T) {
	bank := newTestBank(t)
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Signers:      []types.Pubkey{alice},
		Instructions: []core.Instruction{TransferInstruction(accA, accB, alice, 400)},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(600), balanceOf(t, bank, accA))
	assert.Equal(t, uint64(400), balanceOf(t, bank, accB))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	bank := newTestBank(t)
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Signers:      []types.Pubkey{alice},
		Instructions: []core.Instruction{TransferInstruction(accA, accB, alice, 1001)},
	})
	assert.True(t, errors.Is(err, core.ErrInsufficientFunds))
	assert.Equal(t, uint64(1000), balanceOf(t, bank, accA), "失败时不应部分转账")
	assert.Equal(t, uint64(0), balanceOf(t, bank, accB))
}

func TestTransfer_WrongAuthority(t *testing.T) {
	bank := newTestBank(t)
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Signers:      []types.Pubkey{bob},
		Instructions: []core.Instruction{TransferInstruction(accA, accB, bob, 1)},
	})
	assert.True(t, errors.Is(err, core.ErrAuthorizationMismatch))
	assert.Equal(t, core.KindAuthorizationMismatch, core.Classify(err))
}

func TestTransfer_MissingSignature(t *testing.T) {
	bank := newTestBank(t)
	_, err := bank.Execute(context.Background(), &core.Transaction{
		Instructions: []core.Instruction{TransferInstruction(accA, accB, alice, 1)},
	})
	assert.True(t, errors.Is(err, core.ErrAuthorizationMismatch))
}

// 一个最小的调用方程序：以 PDA 身份从其托管账户转出
func TestTransfer_DerivedAuthority(t *testing.T) {
	callerProgram := key(9)
	custodyOwner, bump := pda.MustDerive(callerProgram, consts.TokenVaultTag, mint)
	custody := key(10)

	bank := newTestBank(t)
	require.NoError(t, bank.SetAccounts(NewTokenAccount(custody, mint, custodyOwner, 50)))

	seeds := pda.Seeds{Tag: consts.TokenVaultTag, Inputs: []types.Pubkey{mint}, Bump: bump}
	useSeeds := true
	bank.RegisterProgram(callerProgram, runtime.ProgramFunc(func(ctx *runtime.InvokeContext, ix *core.Instruction) error {
		transfer := TransferInstruction(custody, accB, custodyOwner, 20)
		if useSeeds {
			return ctx.InvokeSigned(transfer, seeds.SignerSeeds())
		}
		return ctx.Invoke(transfer)
	}))

	callerIx := core.Instruction{
		ProgramID: callerProgram,
		Accounts: []core.AccountMeta{
			core.Writable(custody),
			core.Writable(accB),
			core.Readonly(custodyOwner),
			core.Readonly(consts.TokenProgram),
		},
	}

	_, err := bank.Execute(context.Background(), &core.Transaction{Instructions: []core.Instruction{callerIx}})
	require.NoError(t, err)
	assert.Equal(t, uint64(30), balanceOf(t, bank, custody))
	assert.Equal(t, uint64(20), balanceOf(t, bank, accB))

	// 不提供 seed 时无法证明签名权
	useSeeds = false
	_, err = bank.Execute(context.Background(), &core.Transaction{Instructions: []core.Instruction{callerIx}})
	assert.True(t, errors.Is(err, core.ErrAuthorizationMismatch))
	assert.Equal(t, uint64(30), balanceOf(t, bank, custody))
}

func TestInitializeAccount3AndMint2(t *testing.T) {
	bank := runtime.NewBank(runtime.NewMemStore())
	bank.RegisterProgram(consts.TokenProgram, NewProgram())

	newMint := key(20)
	newAcc := key(21)
	creator := key(22)
	bank.RegisterProgram(creator, runtime.ProgramFunc(func(ctx *runtime.InvokeContext, ix *core.Instruction) error {
		if err := ctx.CreateAccount(newMint, consts.TokenProgram, consts.MintAccountSize, nil); err != nil {
			return err
		}
		if err := ctx.Invoke(InitializeMint2Instruction(newMint, alice, 9)); err != nil {
			return err
		}
		if err := ctx.CreateAccount(newAcc, consts.TokenProgram, consts.TokenAccountSize, nil); err != nil {
			return err
		}
		return ctx.Invoke(InitializeAccount3Instruction(newAcc, newMint, bob))
	}))

	_, err := bank.Execute(context.Background(), &core.Transaction{
		Signers: []types.Pubkey{newMint, newAcc},
		Instructions: []core.Instruction{{
			ProgramID: creator,
			Accounts: []core.AccountMeta{
				core.WritableSigner(newMint),
				core.WritableSigner(newAcc),
				core.Readonly(consts.TokenProgram),
			},
		}},
	})
	require.NoError(t, err)

	mintAcc, err := bank.Account(newMint)
	require.NoError(t, err)
	m, err := DecodeMint(mintAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, alice, m.MintAuthority)
	assert.Equal(t, uint8(9), m.Decimals)
	assert.True(t, m.Initialized)

	acc, err := bank.Account(newAcc)
	require.NoError(t, err)
	ta, err := DecodeTokenAccount(acc.Data)
	require.NoError(t, err)
	assert.Equal(t, newMint, ta.Mint)
	assert.Equal(t, bob, ta.Owner)
	assert.Equal(t, AccountStateInitialized, ta.State)
}
