package consts

// PDA 推导使用的域分隔 tag（seed 前缀），与链上程序保持一致
const (
	GlobalStateTag    = "global-state-seed"     // GlobalState: [tag]
	UsdMintTag        = "usd-mint-seed"         // 稳定币 Mint: [tag]
	TokenVaultTag     = "token-vault-seed"      // TokenVault: [tag, mint_coll]
	TokenVaultPoolTag = "token-vault-pool-seed" // 金库托管池: [tag, token_vault]
	UserTroveTag      = "user-trove-seed"       // UserTrove: [tag, token_vault, owner]
	UserUsdTokenTag   = "user-usd-token-seed"   // 用户稳定币账户: [tag, owner, mint_usd]
)

// 风险参数与精度
const (
	MaxRiskLevel uint8 = 100
	UsdDecimals  uint8 = 6
)
