package svc

import (
	"context"
	"testing"

	"stablecoin-vault-sol/internal/config"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/events"
	"stablecoin-vault-sol/internal/logic/progress"
	"stablecoin-vault-sol/internal/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceContext_LocalDefaults(t *testing.T) {
	ctx, err := NewServiceContext(config.VaultConfig{})
	require.NoError(t, err)
	defer ctx.Close()

	// 未配置 Kafka / Redis 时使用日志输出与进程内判重
	assert.Nil(t, ctx.Producer)
	assert.Nil(t, ctx.Redis)
	assert.IsType(t, mq.LogSink{}, ctx.EventSink)
	require.NoError(t, ctx.EventSink.Publish(context.Background(),
		[]core.Event{{Type: core.EventCollateralDeposited, Amount: 1}}, events.Meta{OpID: "op"}))

	ok, err := ctx.ProgressManager.ShouldExecute(context.Background(), "op")
	require.NoError(t, err)
	assert.True(t, ok)
	status, err := ctx.ProgressManager.Status(context.Background(), "op")
	require.NoError(t, err)
	assert.Equal(t, progress.OpPending, status)

	require.NoError(t, ctx.World.Bootstrap(context.Background()))
	assert.NotNil(t, ctx.Metrics.Handler())
}

func TestNewServiceContext_LevelStore(t *testing.T) {
	var c config.VaultConfig
	c.Ledger.StorePath = t.TempDir()

	ctx, err := NewServiceContext(c)
	require.NoError(t, err)
	require.NoError(t, ctx.World.Bootstrap(context.Background()))
	ctx.Close()

	// 重新打开同一目录，全局配置已存在
	ctx, err = NewServiceContext(c)
	require.NoError(t, err)
	defer ctx.Close()
	_, err = ctx.World.Bank.Account(ctx.World.GlobalState)
	assert.NoError(t, err)
}

func TestNewServiceContext_BadProgramID(t *testing.T) {
	var c config.VaultConfig
	c.Ledger.VaultProgram = "0OIl"
	_, err := NewServiceContext(c)
	assert.Error(t, err)
}
