package consts

// 外部质押场所（Raydium Staking）调用协议
const (
	VenueStakeOpcode   uint8 = 11 // deposit
	VenueUnstakeOpcode uint8 = 12 // withdraw

	VenuePayloadLen      = 9  // 1 字节 opcode + 8 字节 amount（小端序）
	VenueAccountListLen  = 17 // CPI 账户列表长度，顺序即协议
	VenuePoolInfoAccount = 5  // 末尾附加的 pool info 账户数量
)
