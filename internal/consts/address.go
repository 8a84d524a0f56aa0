package consts

import "stablecoin-vault-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr = "11111111111111111111111111111111"
	TokenProgramStr  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// Sysvar
	SysvarClockStr = "SysvarC1ock11111111111111111111111111111111"

	// 本程序（抵押金库）默认 Program ID，可在配置中覆盖
	VaultProgramStr = "8TVoHXsyeCsderFh2u5wiDG4reCD7tk3NALc36j7oUfB"

	// 外部质押场所：Raydium Staking
	RaydiumStakingProgramStr = "EhhTKczWMGQt46ynNeRX1WfeagwwJd7ufHvCDjRxjo5Q"
)

var (
	SystemProgram         = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram          = types.PubkeyFromBase58(TokenProgramStr)
	SysvarClock           = types.PubkeyFromBase58(SysvarClockStr)
	VaultProgram          = types.PubkeyFromBase58(VaultProgramStr)
	RaydiumStakingProgram = types.PubkeyFromBase58(RaydiumStakingProgramStr)
)
