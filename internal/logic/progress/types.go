package progress

// OpStatus 表示一次账本操作的处理状态（Redis 与内存存储统一编码）
type OpStatus int

const (
	OpUnknown   OpStatus = 0 // 不存在
	OpCommitted OpStatus = 1 // ✅ 交易已提交
	OpRejected  OpStatus = 2 // ❌ 交易失败并已回滚
	OpPending   OpStatus = 3 // 🕒 已认领，暂未完成
)

func (s OpStatus) String() string {
	switch s {
	case OpCommitted:
		return "committed"
	case OpRejected:
		return "rejected"
	case OpPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Done 表示该操作已有终态，不应再次执行
func (s OpStatus) Done() bool {
	return s == OpCommitted || s == OpRejected
}
