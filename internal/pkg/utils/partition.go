package utils

import "stablecoin-vault-sol/internal/types"

// PartitionForKey 从地址中选取 4 字节构造 uint32 并模 mod，用于 Kafka 分区选择。
// 同一用户的事件总是落在同一分区，保证按用户有序。非加密哈希。
func PartitionForKey(key types.Pubkey, mod uint32) int32 {
	if mod <= 1 {
		return 0
	}
	switch mod {
	case 2, 4, 8, 16:
		return int32(uint32(key[27]) & (mod - 1)) // 快速路径：低位掩码
	}
	hash := uint32(key[7])<<24 | uint32(key[15])<<16 | uint32(key[19])<<8 | uint32(key[27])
	return int32(hash % mod)
}
