package bridge

import (
	"encoding/binary"
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
)

// StakePayload 是调用质押场所的指令数据：
//
//	[0]    opcode（11=stake，12=unstake）
//	[1:9]  amount（u64 小端序）
type StakePayload struct {
	Instruction uint8
	Amount      uint64
}

func (p StakePayload) Encode() []byte {
	out := make([]byte, consts.VenuePayloadLen)
	out[0] = p.Instruction
	binary.LittleEndian.PutUint64(out[1:], p.Amount)
	return out
}

func DecodeStakePayload(data []byte) (StakePayload, error) {
	if len(data) != consts.VenuePayloadLen {
		return StakePayload{}, fmt.Errorf("%w: venue payload length %d, want %d",
			core.ErrInvalidInstructionData, len(data), consts.VenuePayloadLen)
	}
	return StakePayload{
		Instruction: data[0],
		Amount:      binary.LittleEndian.Uint64(data[1:]),
	}, nil
}
