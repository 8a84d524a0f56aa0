package token

import (
	"encoding/binary"
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/types"
)

// SPL Token 账户布局（165 字节）：
//
//	[0:32]    mint
//	[32:64]   owner（authority）
//	[64:72]   amount（u64 小端序）
//	[72:108]  delegate（COption<Pubkey>）
//	[108]     state（0=未初始化，1=已初始化，2=冻结）
//	[109:165] is_native / delegated_amount / close_authority
const (
	tokenMintOffset   = 0
	tokenOwnerOffset  = 32
	tokenAmountOffset = 64
	tokenStateOffset  = 108
)

// SPL Mint 布局（82 字节）：
//
//	[0:4]   mint_authority option
//	[4:36]  mint_authority
//	[36:44] supply
//	[44]    decimals
//	[45]    is_initialized
//	[46:82] freeze_authority（COption<Pubkey>）
const (
	mintAuthorityOffset = 4
	mintSupplyOffset    = 36
	mintDecimalsOffset  = 44
	mintInitOffset      = 45
)

const (
	AccountStateUninitialized uint8 = 0
	AccountStateInitialized   uint8 = 1
	AccountStateFrozen        uint8 = 2
)

// TokenAccount 是 SPL Token 账户中与本程序相关的字段
type TokenAccount struct {
	Mint   types.Pubkey
	Owner  types.Pubkey
	Amount uint64
	State  uint8
}

func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) != consts.TokenAccountSize {
		return nil, fmt.Errorf("%w: token account size %d, want %d", core.ErrInvalidAccountData, len(data), consts.TokenAccountSize)
	}
	ta := &TokenAccount{
		Amount: binary.LittleEndian.Uint64(data[tokenAmountOffset : tokenAmountOffset+8]),
		State:  data[tokenStateOffset],
	}
	copy(ta.Mint[:], data[tokenMintOffset:tokenMintOffset+32])
	copy(ta.Owner[:], data[tokenOwnerOffset:tokenOwnerOffset+32])
	return ta, nil
}

// EncodeInto 将字段写回 data，保留布局中其他字段
func (ta *TokenAccount) EncodeInto(data []byte) []byte {
	if len(data) != consts.TokenAccountSize {
		data = make([]byte, consts.TokenAccountSize)
	}
	copy(data[tokenMintOffset:], ta.Mint[:])
	copy(data[tokenOwnerOffset:], ta.Owner[:])
	binary.LittleEndian.PutUint64(data[tokenAmountOffset:], ta.Amount)
	data[tokenStateOffset] = ta.State
	return data
}

// Mint 是 SPL Mint 账户中与本程序相关的字段
type Mint struct {
	MintAuthority types.Pubkey
	Supply        uint64
	Decimals      uint8
	Initialized   bool
}

func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != consts.MintAccountSize {
		return nil, fmt.Errorf("%w: mint size %d, want %d", core.ErrInvalidAccountData, len(data), consts.MintAccountSize)
	}
	m := &Mint{
		Supply:      binary.LittleEndian.Uint64(data[mintSupplyOffset : mintSupplyOffset+8]),
		Decimals:    data[mintDecimalsOffset],
		Initialized: data[mintInitOffset] == 1,
	}
	copy(m.MintAuthority[:], data[mintAuthorityOffset:mintAuthorityOffset+32])
	return m, nil
}

func (m *Mint) Encode() []byte {
	data := make([]byte, consts.MintAccountSize)
	binary.LittleEndian.PutUint32(data[0:4], 1)
	copy(data[mintAuthorityOffset:], m.MintAuthority[:])
	binary.LittleEndian.PutUint64(data[mintSupplyOffset:], m.Supply)
	data[mintDecimalsOffset] = m.Decimals
	if m.Initialized {
		data[mintInitOffset] = 1
	}
	return data
}

// Balance 直接读取 TokenAccount 数据中 offset 64 处的余额，不依赖其他字段
func Balance(acc *runtime.Account) (uint64, error) {
	if acc.Owner != consts.TokenProgram {
		return 0, fmt.Errorf("%w: %s is not a token account", core.ErrInvalidAccountData, acc.Key)
	}
	if len(acc.Data) < tokenAmountOffset+8 {
		return 0, fmt.Errorf("%w: %s data too short", core.ErrInvalidAccountData, acc.Key)
	}
	return binary.LittleEndian.Uint64(acc.Data[tokenAmountOffset : tokenAmountOffset+8]), nil
}

// NewTokenAccount 构造已初始化的 TokenAccount（创世 / 测试数据）
func NewTokenAccount(key, mint, owner types.Pubkey, amount uint64) *runtime.Account {
	ta := &TokenAccount{Mint: mint, Owner: owner, Amount: amount, State: AccountStateInitialized}
	return &runtime.Account{
		Key:   key,
		Owner: consts.TokenProgram,
		Data:  ta.EncodeInto(nil),
	}
}

// NewMintAccount 构造已初始化的 Mint（创世 / 测试数据）
func NewMintAccount(key, authority types.Pubkey, decimals uint8) *runtime.Account {
	m := &Mint{MintAuthority: authority, Decimals: decimals, Initialized: true}
	return &runtime.Account{
		Key:   key,
		Owner: consts.TokenProgram,
		Data:  m.Encode(),
	}
}
