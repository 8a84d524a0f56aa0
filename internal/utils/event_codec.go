package utils

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// EventHeaderLen 事件类型前缀长度
const EventHeaderLen = 4

// EncodeEvent 将 protobuf 消息编码为带事件类型前缀的二进制数据：
// - 前 4 字节为事件类型（uint32，小端序）
// - 后续为 protobuf 序列化数据（使用 MarshalAppend）
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	const extraBuffer = 32 // 多预留一些空间，降低 MarshalAppend 触发扩容的概率

	buf := make([]byte, EventHeaderLen, EventHeaderLen+proto.Size(msg)+extraBuffer)
	binary.LittleEndian.PutUint32(buf, eventType)

	opts := proto.MarshalOptions{Deterministic: true}
	result, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", msg, err)
	}
	return result, nil
}

// DecodeEvent 解析事件类型前缀，并将剩余数据反序列化到 msg
func DecodeEvent(data []byte, msg proto.Message) (uint32, error) {
	if len(data) < EventHeaderLen {
		return 0, fmt.Errorf("DecodeEvent: data too short (%d)", len(data))
	}
	eventType := binary.LittleEndian.Uint32(data[:EventHeaderLen])
	if err := proto.Unmarshal(data[EventHeaderLen:], msg); err != nil {
		return eventType, fmt.Errorf("DecodeEvent: unmarshal %T: %w", msg, err)
	}
	return eventType, nil
}
