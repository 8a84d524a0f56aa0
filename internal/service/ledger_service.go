package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/events"
	"stablecoin-vault-sol/internal/logic/progress"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/sandbox"
	"stablecoin-vault-sol/internal/pkg/logger"
	"stablecoin-vault-sol/internal/svc"
)

const defaultOpTimeout = 3 * time.Second

type marketState struct {
	def    *MarketSpec
	market *sandbox.Market
	users  map[string]*sandbox.User
}

// OpResult 是单个脚本操作的处理结果
type OpResult struct {
	ID      string
	Kind    string
	Status  progress.OpStatus
	Skipped bool
	Err     error
	Events  []core.Event
}

// LedgerService 按脚本顺序在本地账本上执行操作，实现 go-zero 的 Service 接口
type LedgerService struct {
	svcCtx  *svc.ServiceContext
	script  *Script
	markets map[string]*marketState

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLedgerService(svcCtx *svc.ServiceContext, script *Script) *LedgerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &LedgerService{
		svcCtx:  svcCtx,
		script:  script,
		markets: make(map[string]*marketState),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *LedgerService) Start() {
	defer close(s.done)
	results, err := s.Run(s.ctx)
	if err != nil {
		logger.Errorf("[LedgerService] 脚本中止: %v", err)
		return
	}
	committed, rejected, skipped := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Status == progress.OpCommitted:
			committed++
		default:
			rejected++
		}
	}
	logger.Infof("[LedgerService] 脚本执行完成: committed=%d, rejected=%d, skipped=%d", committed, rejected, skipped)
	s.logSnapshots()
}

func (s *LedgerService) Stop() {
	s.cancel()
	<-s.done
}

// Run 初始化全局配置、市场与用户，然后依次执行操作。
// 单个操作被程序拒绝不会中止脚本；基础设施错误（判重存储不可用等）会中止。
func (s *LedgerService) Run(ctx context.Context) ([]OpResult, error) {
	if err := s.setup(ctx); err != nil {
		return nil, err
	}
	results := make([]OpResult, 0, len(s.script.Ops))
	for i := range s.script.Ops {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.apply(ctx, &s.script.Ops[i])
		if err != nil {
			return results, fmt.Errorf("op %s: %w", s.script.Ops[i].ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *LedgerService) setup(ctx context.Context) error {
	world := s.svcCtx.World
	if err := world.Bootstrap(ctx); err != nil {
		return err
	}
	for i := range s.script.Markets {
		def := &s.script.Markets[i]
		m, err := world.AddMarket(ctx, sandbox.MarketParams{
			Name:           def.Name,
			Decimals:       def.Decimals,
			RiskLevel:      def.RiskLevel,
			RewardPerCall:  def.RewardPerCall,
			RewardBPerCall: def.RewardBPerCall,
			RewardFunding:  def.RewardFunding,
		})
		if err != nil {
			return err
		}
		s.markets[def.Name] = &marketState{def: def, market: m, users: make(map[string]*sandbox.User)}
	}
	for _, u := range s.script.Users {
		ms := s.markets[u.Market]
		balance, err := ToBaseUnits(u.Balance, ms.def.Decimals)
		if err != nil {
			return err
		}
		user, err := world.AddUser(ctx, ms.market, u.Name, balance)
		if err != nil {
			return err
		}
		ms.users[u.Name] = user
	}
	return nil
}

func (s *LedgerService) opTimeout() time.Duration {
	if ms := s.svcCtx.Config.TimeConf.OpTimeoutMs; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultOpTimeout
}

func (s *LedgerService) apply(ctx context.Context, op *OpSpec) (OpResult, error) {
	res := OpResult{ID: op.ID, Kind: op.Kind}
	pm := s.svcCtx.ProgressManager

	ok, err := pm.ShouldExecute(ctx, op.ID)
	if err != nil {
		return res, err
	}
	if !ok {
		s.svcCtx.Metrics.ObserveSkipped(op.Kind)
		res.Skipped = true
		return res, nil
	}

	// 认领超时后重新执行时，交易可能已在上次运行中提交
	if s.svcCtx.World.Journaled(op.ID) {
		return s.alreadyApplied(ctx, res)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout())
	defer cancel()

	start := time.Now()
	receipt, err := s.execute(opCtx, op)
	s.svcCtx.Metrics.ObserveOp(op.Kind, err, time.Since(start))
	// 每个操作占用一个 slot
	s.svcCtx.World.Bank.Advance(1, 0)

	if errors.Is(err, sandbox.ErrOpAlreadyApplied) {
		return s.alreadyApplied(ctx, res)
	}
	if err != nil {
		logger.Warnf("[LedgerService] op=%s kind=%s 被拒绝 (%s): %v", op.ID, op.Kind, core.Classify(err), err)
		res.Status, res.Err = progress.OpRejected, err
		return res, pm.MarkStatus(ctx, op.ID, progress.OpRejected)
	}

	if receipt != nil && len(receipt.Events) > 0 {
		ms := s.markets[op.Market]
		meta := events.Meta{OpID: op.ID, Slot: receipt.Slot, Decimals: ms.def.Decimals}
		for i := range receipt.Events {
			s.svcCtx.Metrics.ObserveEvent(op.Market, &receipt.Events[i])
		}
		// 交易已提交，发布失败只记录，不影响状态
		perr := s.svcCtx.EventSink.Publish(opCtx, receipt.Events, meta)
		s.svcCtx.Metrics.ObservePublish(len(receipt.Events), perr)
		if perr != nil {
			logger.Errorf("[LedgerService] op=%s 事件发布失败: %v", op.ID, perr)
		}
		res.Events = receipt.Events
	}

	res.Status = progress.OpCommitted
	return res, pm.MarkStatus(ctx, op.ID, progress.OpCommitted)
}

// alreadyApplied 补记已提交操作的状态；其事件在上次运行中未发布，不再补发
func (s *LedgerService) alreadyApplied(ctx context.Context, res OpResult) (OpResult, error) {
	logger.Warnf("[LedgerService] op=%s 已在账本中提交，补记状态", res.ID)
	s.svcCtx.Metrics.ObserveSkipped(res.Kind)
	res.Skipped, res.Status = true, progress.OpCommitted
	return res, s.svcCtx.ProgressManager.MarkStatus(ctx, res.ID, progress.OpCommitted)
}

func (s *LedgerService) execute(ctx context.Context, op *OpSpec) (*runtime.Receipt, error) {
	world := s.svcCtx.World
	switch op.Kind {
	case OpDeposit, OpWithdraw:
		ms := s.markets[op.Market]
		user := ms.users[op.User]
		amount, err := ToBaseUnits(op.Amount, ms.def.Decimals)
		if err != nil {
			return nil, err
		}
		if op.Kind == OpDeposit {
			return world.DepositOnce(ctx, op.ID, ms.market, user, amount, op.RewardB)
		}
		return world.WithdrawOnce(ctx, op.ID, ms.market, user, amount, op.RewardB)

	case OpPauseVenue, OpResumeVenue:
		return nil, world.SetVenuePaused(s.markets[op.Market].market, op.Kind == OpPauseVenue)

	case OpAdvanceSlots:
		clock := world.Bank.Advance(op.Slots, int64(op.Slots))
		logger.Debugf("[LedgerService] 推进到 slot %d", clock.Slot)
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: op kind %q", core.ErrUnknownInstruction, op.Kind)
	}
}

func (s *LedgerService) logSnapshots() {
	for name, ms := range s.markets {
		for userName, u := range ms.users {
			snap, err := s.svcCtx.World.Snapshot(ms.market, u)
			if err != nil {
				logger.Warnf("[LedgerService] snapshot %s/%s 失败: %v", name, userName, err)
				continue
			}
			logger.Infof("[LedgerService] %s/%s locked=%s total=%s reward=%d reward_b=%d staked=%d",
				name, userName,
				events.UIAmount(snap.LockedColl, ms.def.Decimals),
				events.UIAmount(snap.TotalColl, ms.def.Decimals),
				snap.UserReward, snap.UserRewardB, snap.Deposited)
		}
	}
}
