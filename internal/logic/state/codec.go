package state

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"stablecoin-vault-sol/internal/logic/core"

	"github.com/near/borsh-go"
)

// 记录头：8 字节鉴别符 + 1 字节版本号，随后为 borsh 编码的记录体
const (
	discriminatorLen = 8
	headerLen        = discriminatorLen + 1

	recordVersion uint8 = 1
)

// Discriminator 计算 Anchor 风格的账户鉴别符：sha256("account:<Name>")[:8]
func Discriminator(name string) [discriminatorLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [discriminatorLen]byte
	copy(d[:], sum[:discriminatorLen])
	return d
}

var (
	globalStateDisc = Discriminator("GlobalState")
	tokenVaultDisc  = Discriminator("TokenVault")
	userTroveDisc   = Discriminator("UserTrove")
)

func encodeRecord(disc [discriminatorLen]byte, body interface{}) ([]byte, error) {
	raw, err := borsh.Serialize(body)
	if err != nil {
		return nil, fmt.Errorf("borsh serialize: %w", err)
	}
	out := make([]byte, 0, headerLen+len(raw))
	out = append(out, disc[:]...)
	out = append(out, recordVersion)
	return append(out, raw...), nil
}

func decodeRecord(name string, disc [discriminatorLen]byte, data []byte, body interface{}) error {
	if len(data) < headerLen {
		return fmt.Errorf("%w: %s data too short (%d)", core.ErrInvalidAccountData, name, len(data))
	}
	if !bytes.Equal(data[:discriminatorLen], disc[:]) {
		return fmt.Errorf("%w: %s discriminator mismatch", core.ErrInvalidAccountData, name)
	}
	if v := data[discriminatorLen]; v != recordVersion {
		return fmt.Errorf("%w: %s version %d unsupported", core.ErrInvalidAccountData, name, v)
	}
	if err := borsh.Deserialize(body, data[headerLen:]); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidAccountData, name, err)
	}
	return nil
}
