package utils

import (
	"testing"

	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestPartitionForKey(t *testing.T) {
	var key types.Pubkey
	for i := range key {
		key[i] = byte(i * 7)
	}

	assert.Equal(t, int32(0), PartitionForKey(key, 0))
	assert.Equal(t, int32(0), PartitionForKey(key, 1))

	// 2 的幂走掩码路径
	assert.Equal(t, int32(key[27]&7), PartitionForKey(key, 8))

	for _, mod := range []uint32{3, 5, 12, 100} {
		p := PartitionForKey(key, mod)
		assert.GreaterOrEqual(t, p, int32(0))
		assert.Less(t, p, int32(mod))
		assert.Equal(t, p, PartitionForKey(key, mod), "同一地址分区稳定")
	}
}
