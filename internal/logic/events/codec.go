package events

import (
	"fmt"
	"math/big"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/utils"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

// Meta 是事件之外的上下文信息，随事件一起发布
type Meta struct {
	OpID     string
	Slot     uint64
	Decimals uint8 // 抵押资产精度，用于生成 UI 数量
}

// UIAmount 将链上整数数量按精度转换为十进制字符串
func UIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// ToStruct 将事件转换为 protobuf Struct。
// 整数数量以字符串保存，避免超过 2^53 时在 double 中丢失精度。
func ToStruct(ev *core.Event, meta Meta) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"type":    ev.Type.String(),
		"program": ev.Program.String(),
		"owner":   ev.Owner.String(),
		"op_id":   meta.OpID,
		"slot":    fmt.Sprintf("%d", meta.Slot),
	}
	if !ev.Vault.IsZero() {
		fields["vault"] = ev.Vault.String()
	}
	if !ev.Mint.IsZero() {
		fields["mint"] = ev.Mint.String()
	}

	switch ev.Type {
	case core.EventCollateralDeposited, core.EventCollateralWithdrawn:
		amounts := map[string]uint64{
			"amount":      ev.Amount,
			"staked":      ev.Staked,
			"reward":      ev.Reward,
			"reward_b":    ev.RewardB,
			"total_coll":  ev.TotalColl,
			"locked_coll": ev.LockedColl,
		}
		for name, v := range amounts {
			fields[name] = fmt.Sprintf("%d", v)
		}
		fields["ui_amount"] = UIAmount(ev.Amount, meta.Decimals).String()
		fields["ui_locked_coll"] = UIAmount(ev.LockedColl, meta.Decimals).String()
	}

	return structpb.NewStruct(fields)
}

// Encode 编码为 Kafka 消息体：4 字节事件类型 + protobuf
func Encode(ev *core.Event, meta Meta) ([]byte, error) {
	st, err := ToStruct(ev, meta)
	if err != nil {
		return nil, fmt.Errorf("event %s to struct: %w", ev.Type, err)
	}
	return utils.EncodeEvent(uint32(ev.Type), st)
}

// Decode 是 Encode 的逆过程，供消费方与测试使用
func Decode(data []byte) (core.EventType, *structpb.Struct, error) {
	st := &structpb.Struct{}
	t, err := utils.DecodeEvent(data, st)
	if err != nil {
		return core.EventUnknown, nil, err
	}
	return core.EventType(t), st, nil
}
