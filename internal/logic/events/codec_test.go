package events

import (
	"testing"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	var owner types.Pubkey
	owner[0] = 9
	ev := &core.Event{
		Type:       core.EventCollateralDeposited,
		Owner:      owner,
		Amount:     1_500_000,
		Staked:     1_500_000,
		Reward:     5,
		TotalColl:  ^uint64(0),
		LockedColl: 1_500_000,
	}

	data, err := Encode(ev, Meta{OpID: "op-1", Slot: 42, Decimals: 6})
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(core.EventCollateralDeposited), 0, 0, 0}, data[:4])

	kind, st, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, core.EventCollateralDeposited, kind)

	m := st.AsMap()
	assert.Equal(t, "CollateralDeposited", m["type"])
	assert.Equal(t, owner.String(), m["owner"])
	assert.Equal(t, "op-1", m["op_id"])
	assert.Equal(t, "42", m["slot"])
	assert.Equal(t, "5", m["reward"])
	assert.Equal(t, "18446744073709551615", m["total_coll"], "u64 最大值不丢精度")
	assert.Equal(t, "1.5", m["ui_amount"])
	assert.NotContains(t, m, "vault")
}

func TestUIAmount(t *testing.T) {
	assert.Equal(t, "0.000005", UIAmount(5, 6).String())
	assert.Equal(t, "1000", UIAmount(1000, 0).String())
	assert.Equal(t, "18446744073.709551615", UIAmount(^uint64(0), 9).String())
}

func TestDecodeTooShort(t *testing.T) {
	_, _, err := Decode([]byte{1, 2})
	assert.Error(t, err)
}
