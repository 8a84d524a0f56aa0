package runtime

import (
	"fmt"
	"sync"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/syndtr/goleveldb/leveldb"
)

// AccountStore 是账户的持久化后端。
// Commit 必须整体生效或整体失败，运行时依赖它实现事务的原子提交。
type AccountStore interface {
	Get(key types.Pubkey) (*Account, error)
	Commit(accounts []*Account) error
	Close() error
}

// --- In-Memory Store (测试 / 本地模拟) ---

type MemStore struct {
	mu       sync.RWMutex
	accounts map[types.Pubkey]*Account
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[types.Pubkey]*Account),
	}
}

func (s *MemStore) Get(key types.Pubkey) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountNotFound, key)
	}
	return acc.Clone(), nil
}

func (s *MemStore) Commit(accounts []*Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range accounts {
		s.accounts[acc.Key] = acc.Clone()
	}
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

// --- LevelDB Store (持久化) ---

const accountKeyPrefix = "acct:"

type LevelStore struct {
	db *leveldb.DB
}

// NewLevelStore 打开（或创建）path 下的 LevelDB 账户库
func NewLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func levelKey(key types.Pubkey) []byte {
	return append([]byte(accountKeyPrefix), key[:]...)
}

func (s *LevelStore) Get(key types.Pubkey) (*Account, error) {
	raw, err := s.db.Get(levelKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get %s: %w", key, err)
	}
	return decodeAccount(key, raw)
}

// Commit 使用 leveldb.Batch 一次性写入，保证原子性
func (s *LevelStore) Commit(accounts []*Account) error {
	batch := new(leveldb.Batch)
	for _, acc := range accounts {
		raw, err := encodeAccount(acc)
		if err != nil {
			return err
		}
		batch.Put(levelKey(acc.Key), raw)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("leveldb commit %d accounts: %w", len(accounts), err)
	}
	return nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
