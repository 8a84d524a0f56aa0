package runtime

import (
	"context"
	"fmt"
	"sync"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/pkg/logger"
	"stablecoin-vault-sol/internal/types"
)

// Program 是注册到运行时的链上程序入口
type Program interface {
	Process(ctx *InvokeContext, ix *core.Instruction) error
}

// ProgramFunc 允许直接用函数实现 Program
type ProgramFunc func(ctx *InvokeContext, ix *core.Instruction) error

func (f ProgramFunc) Process(ctx *InvokeContext, ix *core.Instruction) error {
	return f(ctx, ix)
}

// Clock 对应 Clock sysvar
type Clock struct {
	Slot          uint64
	UnixTimestamp int64
}

// Receipt 是一次交易执行的结果。失败时 Events 为空，Logs 保留用于排查。
type Receipt struct {
	Slot   uint64
	Events []core.Event
	Logs   []string
	Err    error
}

// Bank 是执行环境：串行执行交易，交易内所有账户写入先进入 overlay，
// 全部指令（包括嵌套 CPI）成功后才一次性提交到 AccountStore，否则整体丢弃。
type Bank struct {
	mu       sync.Mutex
	store    AccountStore
	programs map[types.Pubkey]Program
	clock    Clock
}

func NewBank(store AccountStore) *Bank {
	return &Bank{
		store:    store,
		programs: make(map[types.Pubkey]Program),
	}
}

// RegisterProgram 注册程序，programID 重复时覆盖
func (b *Bank) RegisterProgram(programID types.Pubkey, p Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[programID] = p
}

func (b *Bank) SetClock(c Clock) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = c
}

// Advance 推进 slot 与时间戳（本地模拟用）
func (b *Bank) Advance(slots uint64, seconds int64) Clock {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock.Slot += slots
	b.clock.UnixTimestamp += seconds
	return b.clock
}

func (b *Bank) Clock() Clock {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

// Account 读取已提交的账户（副本）
func (b *Bank) Account(key types.Pubkey) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Get(key)
}

// SetAccounts 直接写入账户，仅用于创世与测试准备数据
func (b *Bank) SetAccounts(accounts ...*Account) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Commit(accounts)
}

func (b *Bank) Close() error {
	return b.store.Close()
}

// Execute 原子执行一笔交易。
// 同一 Bank 上的交易严格串行，程序内部无需任何锁。
func (b *Bank) Execute(ctx context.Context, tx *core.Transaction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state := newTxState(b.store)
	receipt := &Receipt{Slot: b.clock.Slot}

	signers := make(map[types.Pubkey]bool, len(tx.Signers))
	for _, s := range tx.Signers {
		signers[s] = true
	}

	for i := range tx.Instructions {
		ix := &tx.Instructions[i]
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !signers[meta.Pubkey] {
				return b.abort(receipt, state, fmt.Errorf("instruction %d: %w: missing signature for %s",
					i, core.ErrAuthorizationMismatch, meta.Pubkey))
			}
		}

		err := b.invoke(state, ix, signers, 1)
		if err == nil {
			err = state.failed
		}
		if err != nil {
			return b.abort(receipt, state, fmt.Errorf("instruction %d: %w", i, err))
		}
	}

	if err := b.store.Commit(state.dirtyAccounts()); err != nil {
		return b.abort(receipt, state, fmt.Errorf("commit: %w", err))
	}

	receipt.Events = state.events
	receipt.Logs = state.logs
	return receipt, nil
}

func (b *Bank) abort(receipt *Receipt, state *txState, err error) (*Receipt, error) {
	receipt.Logs = state.logs
	receipt.Err = err
	logger.Debugf("[Bank] 交易回滚: slot=%d, err=%v", receipt.Slot, err)
	return receipt, err
}

func (b *Bank) invoke(state *txState, ix *core.Instruction, signers map[types.Pubkey]bool, depth int) error {
	if depth > consts.MaxInvokeDepth {
		return fmt.Errorf("%w: invoke depth %d exceeds %d", core.ErrCrossContractCallFailure, depth, consts.MaxInvokeDepth)
	}
	program, ok := b.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: program %s not registered", core.ErrUnknownInstruction, ix.ProgramID)
	}

	ictx := &InvokeContext{
		bank:    b,
		state:   state,
		ix:      ix,
		signers: signers,
		depth:   depth,
	}
	state.logf("Program %s invoke [%d]", ix.ProgramID, depth)
	if err := program.Process(ictx, ix); err != nil {
		state.logf("Program %s failed: %v", ix.ProgramID, err)
		if state.failed == nil {
			state.failed = err
		}
		return err
	}
	state.logf("Program %s success", ix.ProgramID)
	return nil
}

// txState 是单笔交易的 overlay
type txState struct {
	store    AccountStore
	accounts map[types.Pubkey]*Account
	dirty    map[types.Pubkey]bool
	order    []types.Pubkey // 保持首次写入顺序，提交结果确定
	events   []core.Event
	logs     []string
	failed   error // 任一层调用失败即标记，程序吞掉错误也无法提交
}

func newTxState(store AccountStore) *txState {
	return &txState{
		store:    store,
		accounts: make(map[types.Pubkey]*Account),
		dirty:    make(map[types.Pubkey]bool),
	}
}

func (s *txState) load(key types.Pubkey) (*Account, error) {
	if acc, ok := s.accounts[key]; ok {
		return acc, nil
	}
	acc, err := s.store.Get(key)
	if err != nil {
		return nil, err
	}
	s.accounts[key] = acc
	return acc, nil
}

func (s *txState) markDirty(key types.Pubkey) {
	if !s.dirty[key] {
		s.dirty[key] = true
		s.order = append(s.order, key)
	}
}

func (s *txState) dirtyAccounts() []*Account {
	result := make([]*Account, 0, len(s.order))
	for _, key := range s.order {
		result = append(result, s.accounts[key])
	}
	return result
}

func (s *txState) logf(format string, args ...interface{}) {
	s.logs = append(s.logs, fmt.Sprintf(format, args...))
}
