package pda

import (
	"errors"
	"testing"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMint = types.PubkeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

func TestDeriveDeterministic(t *testing.T) {
	a1, b1, err := Derive(consts.VaultProgram, consts.TokenVaultTag, testMint)
	require.NoError(t, err)
	a2, b2, err := Derive(consts.VaultProgram, consts.TokenVaultTag, testMint)
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.False(t, IsOnCurve(a1), "PDA 不应落在曲线上")

	// 不同 tag / 输入得到不同地址
	pool, _, err := Derive(consts.VaultProgram, consts.TokenVaultPoolTag, a1)
	require.NoError(t, err)
	assert.NotEqual(t, a1, pool)

	other, _, err := Derive(consts.RaydiumStakingProgram, consts.TokenVaultTag, testMint)
	require.NoError(t, err)
	assert.NotEqual(t, a1, other, "不同 programID 应得到不同地址")
}

func TestVerifyRejectsNonCanonicalBump(t *testing.T) {
	addr, bump, err := Derive(consts.VaultProgram, consts.UserTroveTag, testMint, consts.TokenProgram)
	require.NoError(t, err)

	assert.True(t, Verify(consts.VaultProgram, addr, consts.UserTroveTag, bump, testMint, consts.TokenProgram))

	for b := 0; b < 256; b++ {
		if uint8(b) == bump {
			continue
		}
		assert.False(t, Verify(consts.VaultProgram, addr, consts.UserTroveTag, uint8(b), testMint, consts.TokenProgram),
			"bump %d 不应通过校验", b)
	}

	// 即使调用方给出与非规范 bump 自洽的地址，也必须拒绝
	if bump > 0 {
		seeds := Seeds{Tag: consts.UserTroveTag, Inputs: []types.Pubkey{testMint, consts.TokenProgram}, Bump: bump - 1}
		if nonCanonical, err := Create(consts.VaultProgram, seeds.SignerSeeds()); err == nil {
			assert.False(t, Verify(consts.VaultProgram, nonCanonical, consts.UserTroveTag, bump-1, testMint, consts.TokenProgram))
		}
	}

	// 输入不一致
	assert.False(t, Verify(consts.VaultProgram, addr, consts.UserTroveTag, bump, consts.TokenProgram, testMint))
}

func TestCheckReturnsSignerSeeds(t *testing.T) {
	addr, bump := MustDerive(consts.VaultProgram, consts.TokenVaultTag, testMint)

	seeds, err := Check(consts.VaultProgram, addr, consts.TokenVaultTag, bump, testMint)
	require.NoError(t, err)

	signer := seeds.SignerSeeds()
	require.Len(t, signer, 3)
	assert.Equal(t, []byte(consts.TokenVaultTag), signer[0])
	assert.Equal(t, testMint[:], signer[1])
	assert.Equal(t, []byte{bump}, signer[2])

	// 重新提交 seed 应重算出同一地址
	recomputed, err := Create(consts.VaultProgram, signer)
	require.NoError(t, err)
	assert.Equal(t, addr, recomputed)

	_, err = Check(consts.VaultProgram, addr, consts.TokenVaultTag, bump^0x01, testMint)
	assert.True(t, errors.Is(err, core.ErrInvalidDerivedAddress))
}
