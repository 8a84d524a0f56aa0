package runtime

import (
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/types"
)

// InvokeContext 是程序处理一条指令时可见的执行上下文。
// 程序只能访问当前指令声明的账户，只能写自己拥有且被标记为可写的账户。
type InvokeContext struct {
	bank    *Bank
	state   *txState
	ix      *core.Instruction
	signers map[types.Pubkey]bool // 本层调用中拥有签名权的地址
	depth   int
}

func (c *InvokeContext) ProgramID() types.Pubkey {
	return c.ix.ProgramID
}

func (c *InvokeContext) Depth() int {
	return c.depth
}

func (c *InvokeContext) Clock() Clock {
	return c.bank.clock
}

func (c *InvokeContext) meta(key types.Pubkey) (core.AccountMeta, bool) {
	for _, m := range c.ix.Accounts {
		if m.Pubkey == key {
			return m, true
		}
	}
	return core.AccountMeta{}, false
}

func (c *InvokeContext) hasAccount(key types.Pubkey) bool {
	_, ok := c.meta(key)
	return ok
}

// IsSigner 判断 key 在当前指令中是否带签名权
func (c *InvokeContext) IsSigner(key types.Pubkey) bool {
	for _, m := range c.ix.Accounts {
		if m.Pubkey == key && m.IsSigner && c.signers[key] {
			return true
		}
	}
	return false
}

// IsWritable 判断 key 在当前指令中是否可写
func (c *InvokeContext) IsWritable(key types.Pubkey) bool {
	for _, m := range c.ix.Accounts {
		if m.Pubkey == key && m.IsWritable {
			return true
		}
	}
	return false
}

// Account 读取当前指令声明的账户（返回副本，修改需调用 SetData）
func (c *InvokeContext) Account(key types.Pubkey) (*Account, error) {
	if !c.hasAccount(key) {
		return nil, fmt.Errorf("%w: %s not passed to program %s", core.ErrAccountNotFound, key, c.ix.ProgramID)
	}
	acc, err := c.state.load(key)
	if err != nil {
		return nil, err
	}
	return acc.Clone(), nil
}

// Exists 判断账户是否已存在（仍要求账户在当前指令中声明）
func (c *InvokeContext) Exists(key types.Pubkey) bool {
	if !c.hasAccount(key) {
		return false
	}
	_, err := c.state.load(key)
	return err == nil
}

// SetData 写入账户数据，要求账户可写且归当前程序所有
func (c *InvokeContext) SetData(key types.Pubkey, data []byte) error {
	if !c.IsWritable(key) {
		return fmt.Errorf("%w: %s is not writable", core.ErrAuthorizationMismatch, key)
	}
	acc, err := c.state.load(key)
	if err != nil {
		return err
	}
	if acc.Owner != c.ix.ProgramID {
		return fmt.Errorf("%w: %s owned by %s, not %s", core.ErrAuthorizationMismatch, key, acc.Owner, c.ix.ProgramID)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	acc.Data = buf
	c.state.markDirty(key)
	return nil
}

// CreateAccount 创建新账户并分配 space 字节数据，owner 为拥有写权限的程序。
// 签名权来自交易签名者，或由 seeds 在当前程序下重新推导出 key（PDA 账户）。
func (c *InvokeContext) CreateAccount(key, owner types.Pubkey, space int, seeds [][]byte) error {
	if !c.IsWritable(key) {
		return fmt.Errorf("%w: %s is not writable", core.ErrAuthorizationMismatch, key)
	}
	if _, err := c.state.load(key); err == nil {
		return fmt.Errorf("%w: %s", core.ErrAccountAlreadyInUse, key)
	}

	authorized := c.signers[key]
	if !authorized && seeds != nil {
		derived, err := pda.Create(c.ix.ProgramID, seeds)
		if err != nil {
			return err
		}
		authorized = derived == key
	}
	if !authorized {
		return fmt.Errorf("%w: cannot sign for new account %s", core.ErrAuthorizationMismatch, key)
	}

	c.state.accounts[key] = &Account{
		Key:   key,
		Owner: owner,
		Data:  make([]byte, space),
	}
	c.state.markDirty(key)
	return nil
}

// Invoke 发起不附加派生签名的 CPI
func (c *InvokeContext) Invoke(ix core.Instruction) error {
	return c.InvokeSigned(ix)
}

// InvokeSigned 发起 CPI。signerSeeds 中的每组 seed 在当前程序下重算出一个 PDA，
// 该 PDA 在被调用指令中视为已签名；除此之外的签名 / 可写标记不得超出调用方自身的权限。
func (c *InvokeContext) InvokeSigned(ix core.Instruction, signerSeeds ...[][]byte) error {
	if !c.hasAccount(ix.ProgramID) {
		return fmt.Errorf("%w: program %s not passed to caller %s", core.ErrAccountNotFound, ix.ProgramID, c.ix.ProgramID)
	}

	derived := make(map[types.Pubkey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := pda.Create(c.ix.ProgramID, seeds)
		if err != nil {
			return err
		}
		derived[addr] = true
	}

	calleeSigners := make(map[types.Pubkey]bool)
	for _, m := range ix.Accounts {
		if !c.hasAccount(m.Pubkey) {
			return fmt.Errorf("%w: %s not passed to caller %s", core.ErrAccountNotFound, m.Pubkey, c.ix.ProgramID)
		}
		if m.IsWritable && !c.IsWritable(m.Pubkey) {
			return fmt.Errorf("%w: writable privilege escalated for %s", core.ErrAuthorizationMismatch, m.Pubkey)
		}
		if m.IsSigner {
			if !c.IsSigner(m.Pubkey) && !derived[m.Pubkey] {
				return fmt.Errorf("%w: signer privilege escalated for %s", core.ErrAuthorizationMismatch, m.Pubkey)
			}
			calleeSigners[m.Pubkey] = true
		}
	}

	return c.bank.invoke(c.state, &ix, calleeSigners, c.depth+1)
}

// Emit 记录事件，交易回滚时一并丢弃
func (c *InvokeContext) Emit(ev core.Event) {
	ev.Program = c.ix.ProgramID
	c.state.events = append(c.state.events, ev)
}

func (c *InvokeContext) Logf(format string, args ...interface{}) {
	c.state.logf("Program log: "+format, args...)
}
