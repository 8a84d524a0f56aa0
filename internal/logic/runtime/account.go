package runtime

import (
	"fmt"

	"stablecoin-vault-sol/internal/types"

	"github.com/near/borsh-go"
)

// Account 是运行时中的一条账户记录。
// Owner 为拥有该账户数据写权限的程序；只有 Owner 程序可以修改 Data。
type Account struct {
	Key      types.Pubkey
	Owner    types.Pubkey
	Lamports uint64
	Data     []byte
}

// Clone 深拷贝账户，事务内的修改只作用在副本上
func (a *Account) Clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{
		Key:      a.Key,
		Owner:    a.Owner,
		Lamports: a.Lamports,
		Data:     data,
	}
}

// storedAccount 是账户落盘时的 borsh 结构
type storedAccount struct {
	Owner    [32]byte
	Lamports uint64
	Data     []byte
}

func encodeAccount(a *Account) ([]byte, error) {
	return borsh.Serialize(storedAccount{
		Owner:    a.Owner,
		Lamports: a.Lamports,
		Data:     a.Data,
	})
}

func decodeAccount(key types.Pubkey, raw []byte) (*Account, error) {
	var s storedAccount
	if err := borsh.Deserialize(&s, raw); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", key, err)
	}
	return &Account{
		Key:      key,
		Owner:    s.Owner,
		Lamports: s.Lamports,
		Data:     s.Data,
	}, nil
}
