package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stablecoin-vault-sol/internal/config"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/events"
	"stablecoin-vault-sol/internal/logic/progress"
	"stablecoin-vault-sol/internal/svc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScript = `
markets:
  - name: ray-usdc-lp
    decimals: 6
    risk_level: 50
    reward_per_call: 5
    reward_b_per_call: 3
    reward_funding: 1000000
users:
  - name: alice
    market: ray-usdc-lp
    balance: "0.01"
ops:
  - {kind: deposit, market: ray-usdc-lp, user: alice, amount: "0.001"}
  - {kind: withdraw, market: ray-usdc-lp, user: alice, amount: "0.0004", reward_b: true}
  - {kind: pause_venue, market: ray-usdc-lp}
  - {kind: deposit, market: ray-usdc-lp, user: alice, amount: "0.0001"}
  - {kind: resume_venue, market: ray-usdc-lp}
  - {kind: withdraw, market: ray-usdc-lp, user: alice, amount: "1"}
  - {kind: deposit, market: ray-usdc-lp, user: alice, amount: "0"}
  - {kind: advance, slots: 100}
`

type recordingSink struct {
	mu     sync.Mutex
	events []core.Event
	metas  []events.Meta
}

func (r *recordingSink) Publish(_ context.Context, evs []core.Event, meta events.Meta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evs...)
	r.metas = append(r.metas, meta)
	return nil
}

func newTestService(t *testing.T) (*svc.ServiceContext, *recordingSink, *Script) {
	svcCtx, err := svc.NewServiceContext(config.VaultConfig{})
	require.NoError(t, err)
	t.Cleanup(svcCtx.Close)

	sink := &recordingSink{}
	svcCtx.EventSink = sink

	script, err := ParseScript([]byte(testScript))
	require.NoError(t, err)
	return svcCtx, sink, script
}

func TestLedgerService_Run(t *testing.T) {
	svcCtx, sink, script := newTestService(t)
	s := NewLedgerService(svcCtx, script)

	results, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(script.Ops))

	statuses := make([]progress.OpStatus, len(results))
	for i, r := range results {
		statuses[i] = r.Status
	}
	assert.Equal(t, []progress.OpStatus{
		progress.OpCommitted, progress.OpCommitted,
		progress.OpCommitted, progress.OpRejected, progress.OpCommitted,
		progress.OpRejected, progress.OpRejected, progress.OpCommitted,
	}, statuses)

	assert.True(t, errors.Is(results[3].Err, core.ErrCrossContractCallFailure))
	assert.True(t, errors.Is(results[5].Err, core.ErrInsufficientFunds))
	assert.True(t, errors.Is(results[6].Err, core.ErrInvalidAmount))

	ms := s.markets["ray-usdc-lp"]
	snap, err := svcCtx.World.Snapshot(ms.market, ms.users["alice"])
	require.NoError(t, err)
	assert.Equal(t, uint64(600), snap.LockedColl)
	assert.Equal(t, uint64(600), snap.TotalColl)
	assert.Equal(t, uint64(9400), snap.UserColl)
	assert.Equal(t, uint64(10), snap.UserReward)
	assert.Equal(t, uint64(6), snap.UserRewardB)

	require.Len(t, sink.events, 2)
	assert.Equal(t, core.EventCollateralDeposited, sink.events[0].Type)
	assert.Equal(t, core.EventCollateralWithdrawn, sink.events[1].Type)
	assert.Equal(t, script.Ops[0].ID, sink.metas[0].OpID)
	assert.Equal(t, uint8(6), sink.metas[0].Decimals)
	assert.Less(t, sink.metas[0].Slot, sink.metas[1].Slot)
}

func TestLedgerService_ReplaySkipsFinishedOps(t *testing.T) {
	svcCtx, sink, script := newTestService(t)

	_, err := NewLedgerService(svcCtx, script).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.events, 2)

	// 同一脚本再次执行：市场与用户已存在，所有操作已有终态
	s := NewLedgerService(svcCtx, script)
	results, err := s.Run(context.Background())
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Skipped, r.ID)
	}
	assert.Len(t, sink.events, 2)

	ms := s.markets["ray-usdc-lp"]
	snap, err := svcCtx.World.Snapshot(ms.market, ms.users["alice"])
	require.NoError(t, err)
	assert.Equal(t, uint64(600), snap.LockedColl)
}

func TestLedgerService_StartStop(t *testing.T) {
	svcCtx, sink, script := newTestService(t)
	s := NewLedgerService(svcCtx, script)

	s.Start()
	s.Stop()
	assert.Len(t, sink.events, 2)

	status, err := svcCtx.ProgressManager.Status(context.Background(), script.Ops[0].ID)
	require.NoError(t, err)
	assert.Equal(t, progress.OpCommitted, status)
}

func TestLedgerService_CommittedBeforeStatusWasRecorded(t *testing.T) {
	ctx := context.Background()
	svcCtx, sink, script := newTestService(t)
	s := NewLedgerService(svcCtx, script)
	require.NoError(t, s.setup(ctx))

	// 上次运行在交易提交后、写入状态前退出
	first := script.Ops[0]
	ms := s.markets[first.Market]
	_, err := svcCtx.World.DepositOnce(ctx, first.ID, ms.market, ms.users[first.User], 1000, false)
	require.NoError(t, err)

	results, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, progress.OpCommitted, results[0].Status)

	status, err := svcCtx.ProgressManager.Status(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.OpCommitted, status)

	// 存入只计一次：1000 - 400
	snap, err := svcCtx.World.Snapshot(ms.market, ms.users[first.User])
	require.NoError(t, err)
	assert.Equal(t, uint64(600), snap.LockedColl)
	require.Len(t, sink.events, 1)
	assert.Equal(t, core.EventCollateralWithdrawn, sink.events[0].Type)
}

func TestLedgerService_ExpiredClaimDoesNotReapply(t *testing.T) {
	ctx := context.Background()
	svcCtx, _, script := newTestService(t)
	script.Ops = script.Ops[:1]

	_, err := NewLedgerService(svcCtx, script).Run(ctx)
	require.NoError(t, err)

	// 判重记录丢失（如 Redis 过期），账本中的日志条目仍会阻止重复执行
	svcCtx.ProgressManager = progress.NewProgressManager(progress.NewMemStatusStore())
	s := NewLedgerService(svcCtx, script)
	results, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, results[0].Skipped)

	ms := s.markets["ray-usdc-lp"]
	snap, err := svcCtx.World.Snapshot(ms.market, ms.users["alice"])
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), snap.LockedColl)
}
