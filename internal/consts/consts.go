package consts

const (
	// MaxInvokeDepth CPI 最大嵌套深度（与 Solana 运行时一致）
	MaxInvokeDepth = 4

	// TokenAccountSize / MintAccountSize SPL Token 账户布局大小
	TokenAccountSize = 165
	MintAccountSize  = 82
)
