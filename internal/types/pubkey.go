package types

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// Pubkey 是账户地址的值类型表示（32 字节），可直接用作 map key
type Pubkey [32]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Equals(other Pubkey) bool {
	return p == other
}

// IsZero 判断是否为全 0 地址（未设置）
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Common 转换为 solana-go-sdk 的 PublicKey，用于调用 SDK（PDA 推导、指令构造等）
func (p Pubkey) Common() common.PublicKey {
	return common.PublicKey(p)
}

// Bytes 返回地址的字节切片（拷贝），适合作为 PDA seed
func (p Pubkey) Bytes() []byte {
	b := make([]byte, len(p))
	copy(b, p[:])
	return b
}

// PubkeyFromCommon 将 SDK 的 PublicKey 转换为 Pubkey
func PubkeyFromCommon(k common.PublicKey) Pubkey {
	return Pubkey(k)
}

// PubkeyFromBytes 从 32 字节切片构造 Pubkey
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32", len(b))
	}
	var p Pubkey
	copy(p[:], b)
	return p, nil
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

func PubkeysFromBase58(strs []string) []Pubkey {
	result := make([]Pubkey, 0, len(strs))
	for _, s := range strs {
		result = append(result, PubkeyFromBase58(s))
	}
	return result
}
