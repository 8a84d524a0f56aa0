package token

import (
	"encoding/binary"
	"fmt"
	"math"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/types"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// InitializeMint2 不带 rent sysvar 的 Mint 初始化（SPL Token 指令 20）
const instructionInitializeMint2 byte = 20

// Program 实现 SPL Token 程序中本系统用到的子集：Transfer、InitializeAccount3、InitializeMint2
type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

// Process 按指令首字节分发
func (p *Program) Process(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	if len(ix.Data) == 0 {
		return fmt.Errorf("%w: empty token instruction", core.ErrInvalidInstructionData)
	}

	switch ix.Data[0] {
	case byte(sdktoken.InstructionTransfer):
		return processTransfer(ctx, ix)

	case byte(sdktoken.InstructionInitializeAccount3):
		return processInitializeAccount3(ctx, ix)

	case instructionInitializeMint2:
		return processInitializeMint2(ctx, ix)

	default:
		return fmt.Errorf("%w: token opcode %d", core.ErrUnknownInstruction, ix.Data[0])
	}
}

func loadTokenAccount(ctx *runtime.InvokeContext, key types.Pubkey) (*TokenAccount, []byte, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		return nil, nil, err
	}
	if acc.Owner != consts.TokenProgram {
		return nil, nil, fmt.Errorf("%w: %s not owned by token program", core.ErrInvalidAccountData, key)
	}
	ta, err := DecodeTokenAccount(acc.Data)
	if err != nil {
		return nil, nil, err
	}
	if ta.State != AccountStateInitialized {
		return nil, nil, fmt.Errorf("%w: token account %s state=%d", core.ErrInvalidAccountData, key, ta.State)
	}
	return ta, acc.Data, nil
}

// processTransfer
// Layout: [source, destination, authority]，Data: [3, amount(u64 LE)]
func processTransfer(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	if len(ix.Data) != 9 {
		return fmt.Errorf("%w: transfer data length %d", core.ErrInvalidInstructionData, len(ix.Data))
	}
	if len(ix.Accounts) < 3 {
		return fmt.Errorf("%w: transfer needs 3 accounts, got %d", core.ErrInvalidInstructionData, len(ix.Accounts))
	}
	amount := binary.LittleEndian.Uint64(ix.Data[1:9])
	srcKey := ix.Accounts[0].Pubkey
	dstKey := ix.Accounts[1].Pubkey
	authority := ix.Accounts[2].Pubkey

	src, srcData, err := loadTokenAccount(ctx, srcKey)
	if err != nil {
		return err
	}
	dst, dstData, err := loadTokenAccount(ctx, dstKey)
	if err != nil {
		return err
	}

	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: mint mismatch %s != %s", core.ErrInvalidAccountData, src.Mint, dst.Mint)
	}
	if src.Owner != authority {
		return fmt.Errorf("%w: %s is not the owner of %s", core.ErrAuthorizationMismatch, authority, srcKey)
	}
	if !ctx.IsSigner(authority) {
		return fmt.Errorf("%w: owner %s did not sign", core.ErrAuthorizationMismatch, authority)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s balance %d < %d", core.ErrInsufficientFunds, srcKey, src.Amount, amount)
	}

	// 自转账不改变余额
	if srcKey == dstKey {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s balance %d + %d", core.ErrArithmeticOverflow, dstKey, dst.Amount, amount)
	}

	src.Amount -= amount
	dst.Amount += amount

	if err := ctx.SetData(srcKey, src.EncodeInto(srcData)); err != nil {
		return err
	}
	return ctx.SetData(dstKey, dst.EncodeInto(dstData))
}

// processInitializeAccount3
// Layout: [tokenAccount, mint]，owner 位于 Data[1:33]
func processInitializeAccount3(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	if len(ix.Accounts) < 2 || len(ix.Data) < 33 {
		return fmt.Errorf("%w: initialize account3", core.ErrInvalidInstructionData)
	}
	accKey := ix.Accounts[0].Pubkey
	mintKey := ix.Accounts[1].Pubkey

	mintAcc, err := ctx.Account(mintKey)
	if err != nil {
		return err
	}
	if mintAcc.Owner != consts.TokenProgram {
		return fmt.Errorf("%w: mint %s not owned by token program", core.ErrInvalidAccountData, mintKey)
	}
	if _, err := DecodeMint(mintAcc.Data); err != nil {
		return err
	}

	acc, err := ctx.Account(accKey)
	if err != nil {
		return err
	}
	if len(acc.Data) != consts.TokenAccountSize {
		return fmt.Errorf("%w: token account %s size %d", core.ErrInvalidAccountData, accKey, len(acc.Data))
	}
	if acc.Data[tokenStateOffset] != AccountStateUninitialized {
		return fmt.Errorf("%w: token account %s already initialized", core.ErrAccountAlreadyInUse, accKey)
	}

	owner, err := types.PubkeyFromBytes(ix.Data[1:33])
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInstructionData, err)
	}
	ta := &TokenAccount{Mint: mintKey, Owner: owner, State: AccountStateInitialized}
	return ctx.SetData(accKey, ta.EncodeInto(acc.Data))
}

// processInitializeMint2
// Layout: [mint]，Data: [20, decimals, mint_authority(32), freeze_option(1), freeze_authority(32)]
func processInitializeMint2(ctx *runtime.InvokeContext, ix *core.Instruction) error {
	if len(ix.Accounts) < 1 || len(ix.Data) < 34 {
		return fmt.Errorf("%w: initialize mint2", core.ErrInvalidInstructionData)
	}
	mintKey := ix.Accounts[0].Pubkey
	acc, err := ctx.Account(mintKey)
	if err != nil {
		return err
	}
	if len(acc.Data) != consts.MintAccountSize {
		return fmt.Errorf("%w: mint %s size %d", core.ErrInvalidAccountData, mintKey, len(acc.Data))
	}
	if acc.Data[mintInitOffset] == 1 {
		return fmt.Errorf("%w: mint %s already initialized", core.ErrAccountAlreadyInUse, mintKey)
	}

	authority, err := types.PubkeyFromBytes(ix.Data[2:34])
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInstructionData, err)
	}
	m := &Mint{MintAuthority: authority, Decimals: ix.Data[1], Initialized: true}
	return ctx.SetData(mintKey, m.Encode())
}
