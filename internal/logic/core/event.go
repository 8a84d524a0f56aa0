package core

import "stablecoin-vault-sol/internal/types"

// EventType 表示程序执行过程中产生的事件类别
type EventType uint32

const (
	EventUnknown EventType = iota
	EventGlobalStateCreated
	EventTokenVaultCreated
	EventUserTroveCreated
	EventCollateralDeposited
	EventCollateralWithdrawn
)

var eventNames = []string{
	"Unknown",
	"GlobalStateCreated",
	"TokenVaultCreated",
	"UserTroveCreated",
	"CollateralDeposited",
	"CollateralWithdrawn",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return eventNames[0]
}

// Event 是程序在一次调用中发出的事件，仅在交易提交后才对外可见。
// 不同事件类型使用的字段不同，未使用字段为零值。
type Event struct {
	Type    EventType
	Program types.Pubkey // 发出事件的程序
	Owner   types.Pubkey // 用户（也用作 Kafka 分区 key）
	Vault   types.Pubkey // TokenVault 地址
	Mint    types.Pubkey // 抵押资产 Mint

	Amount  uint64 // 用户请求的存入 / 取出数量
	Staked  uint64 // 实际转入 / 转出质押场所的数量
	Reward  uint64 // 本次收割并转给用户的奖励
	RewardB uint64 // 第二奖励代币（仅当调用方提供目标账户时）

	TotalColl  uint64 // 调用结束后 vault.total_coll
	LockedColl uint64 // 调用结束后 trove.locked_coll_balance
}
