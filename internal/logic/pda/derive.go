package pda

import (
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
)

// Seeds 是一个派生地址的完整 seed 材料（tag + 输入身份 + bump）。
// 程序以它代替私钥：调用 InvokeSigned 时重新提交 seed，由运行时重算地址来证明签名权。
type Seeds struct {
	Tag    string
	Inputs []types.Pubkey
	Bump   uint8
}

// SignerSeeds 转换为运行时 InvokeSigned 所需的 [][]byte（bump 位于最后）
func (s Seeds) SignerSeeds() [][]byte {
	seeds := buildSeeds(s.Tag, s.Inputs)
	return append(seeds, []byte{s.Bump})
}

func buildSeeds(tag string, inputs []types.Pubkey) [][]byte {
	seeds := make([][]byte, 0, len(inputs)+2)
	seeds = append(seeds, []byte(tag))
	for _, in := range inputs {
		seeds = append(seeds, in.Bytes())
	}
	return seeds
}

// Derive 推导 programID 下 (tag, inputs...) 对应的规范 PDA 与 bump。
// bump 从 255 向下搜索，第一个不在 ed25519 曲线上的地址即为结果；
// 全部落在曲线上时返回 ErrInvalidDerivedAddress（属于配置错误，实际不会发生）。
func Derive(programID types.Pubkey, tag string, inputs ...types.Pubkey) (types.Pubkey, uint8, error) {
	addr, bump, err := common.FindProgramAddress(buildSeeds(tag, inputs), programID.Common())
	if err != nil {
		return types.Pubkey{}, 0, fmt.Errorf("%w: derive %q: %v", core.ErrInvalidDerivedAddress, tag, err)
	}
	return types.PubkeyFromCommon(addr), bump, nil
}

// MustDerive 用于地址常量初始化、测试等确定不会失败的场景
func MustDerive(programID types.Pubkey, tag string, inputs ...types.Pubkey) (types.Pubkey, uint8) {
	addr, bump, err := Derive(programID, tag, inputs...)
	if err != nil {
		panic(err)
	}
	return addr, bump
}

// Create 使用给定 bump 计算地址（不做规范性检查），结果落在曲线上时返回错误
func Create(programID types.Pubkey, seeds [][]byte) (types.Pubkey, error) {
	addr, err := common.CreateProgramAddress(seeds, programID.Common())
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("%w: %v", core.ErrInvalidDerivedAddress, err)
	}
	return types.PubkeyFromCommon(addr), nil
}

// Verify 校验调用方提供的 (address, bump) 是否为 (tag, inputs...) 的规范 PDA。
// 非规范 bump 即便能算出合法的曲线外地址也会被拒绝。
func Verify(programID, address types.Pubkey, tag string, bump uint8, inputs ...types.Pubkey) bool {
	expected, canonical, err := Derive(programID, tag, inputs...)
	if err != nil {
		return false
	}
	return bump == canonical && address == expected
}

// Check 与 Verify 相同，失败时返回带上下文的 ErrInvalidDerivedAddress，并返回可用于签名的 Seeds
func Check(programID, address types.Pubkey, tag string, bump uint8, inputs ...types.Pubkey) (Seeds, error) {
	if !Verify(programID, address, tag, bump, inputs...) {
		return Seeds{}, fmt.Errorf("%w: tag=%q address=%s bump=%d", core.ErrInvalidDerivedAddress, tag, address, bump)
	}
	return Seeds{Tag: tag, Inputs: inputs, Bump: bump}, nil
}

// IsOnCurve 判断地址是否为合法 ed25519 公钥（即可能有对应私钥）
func IsOnCurve(address types.Pubkey) bool {
	return common.IsOnCurve(address.Common())
}
