package protocol

import (
	"crypto/sha256"
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"

	"github.com/near/borsh-go"
)

// InstructionKind 是 vault 程序支持的指令
type InstructionKind uint8

const (
	KindUnknown InstructionKind = iota
	KindCreateGlobalState
	KindCreateTokenVault
	KindCreateUserTrove
	KindDepositCollateral
	KindWithdrawCollateral
)

var instructionNames = map[InstructionKind]string{
	KindCreateGlobalState:  "create_global_state",
	KindCreateTokenVault:   "create_token_vault",
	KindCreateUserTrove:    "create_user_trove",
	KindDepositCollateral:  "deposit_collateral",
	KindWithdrawCollateral: "withdraw_collateral",
}

func (k InstructionKind) String() string {
	if name, ok := instructionNames[k]; ok {
		return name
	}
	return "unknown"
}

// InstructionDiscriminator sha256("global:<snake_name>")[:8]
func InstructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

var discriminators = func() map[[8]byte]InstructionKind {
	m := make(map[[8]byte]InstructionKind, len(instructionNames))
	for kind, name := range instructionNames {
		m[InstructionDiscriminator(name)] = kind
	}
	return m
}()

// CreateGlobalStateArgs 对应 create_global_state 的参数
type CreateGlobalStateArgs struct {
	GlobalStateNonce uint8
	MintUsdNonce     uint8
}

type CreateTokenVaultArgs struct {
	TokenVaultNonce  uint8
	GlobalStateNonce uint8
	TokenCollNonce   uint8
	RiskLevel        uint8
}

type CreateUserTroveArgs struct {
	UserTroveNonce  uint8
	TokenVaultNonce uint8
}

// CollateralArgs 是 deposit_collateral / withdraw_collateral 共用的参数
type CollateralArgs struct {
	Amount          uint64
	TokenVaultNonce uint8
	UserTroveNonce  uint8
	TokenCollNonce  uint8
}

func encodeInstruction(kind InstructionKind, args interface{}) []byte {
	disc := InstructionDiscriminator(kind.String())
	raw, err := borsh.Serialize(args)
	if err != nil {
		// 参数均为定长整数，序列化不会失败
		panic(fmt.Sprintf("serialize %s args: %v", kind, err))
	}
	return append(disc[:], raw...)
}

// DecodeKind 读取指令鉴别符
func DecodeKind(data []byte) (InstructionKind, error) {
	if len(data) < 8 {
		return KindUnknown, fmt.Errorf("%w: instruction data too short (%d)", core.ErrInvalidInstructionData, len(data))
	}
	var d [8]byte
	copy(d[:], data[:8])
	kind, ok := discriminators[d]
	if !ok {
		return KindUnknown, fmt.Errorf("%w: discriminator %x", core.ErrUnknownInstruction, d)
	}
	return kind, nil
}

func decodeArgs(data []byte, args interface{}) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: instruction data too short", core.ErrInvalidInstructionData)
	}
	if err := borsh.Deserialize(args, data[8:]); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInstructionData, err)
	}
	return nil
}

