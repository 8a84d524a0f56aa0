package progress

import (
	"context"
	"time"

	"stablecoin-vault-sol/internal/pkg/logger"
)

// 各状态的保留时间
const (
	committedTTL = 7 * 24 * time.Hour
	rejectedTTL  = 24 * time.Hour
	pendingTTL   = 5 * time.Minute
)

// ProgressManager 控制操作判重与状态写入
type ProgressManager struct {
	store StatusStore
}

func NewProgressManager(store StatusStore) *ProgressManager {
	return &ProgressManager{store: store}
}

// ShouldExecute 判断操作是否需要执行：
// - 已提交或已拒绝的操作直接跳过
// - 其他调用方已认领（Pending）时跳过，认领超时后可重试
func (pm *ProgressManager) ShouldExecute(ctx context.Context, opID string) (bool, error) {
	claimed, err := pm.store.Claim(ctx, opID, pendingTTL)
	if err != nil {
		return false, err
	}
	if claimed {
		return true, nil
	}
	status, err := pm.store.GetStatus(ctx, opID)
	if err != nil {
		return false, err
	}
	logger.Infof("[progress] op=%s 已是 %s 状态，跳过", opID, status)
	return false, nil
}

// MarkStatus 记录操作的终态，Unknown / Pending 不参与记录
func (pm *ProgressManager) MarkStatus(ctx context.Context, opID string, status OpStatus) error {
	switch status {
	case OpCommitted:
		return pm.store.SetStatus(ctx, opID, status, committedTTL)
	case OpRejected:
		return pm.store.SetStatus(ctx, opID, status, rejectedTTL)
	default:
		return nil
	}
}

// Status 查询操作当前状态
func (pm *ProgressManager) Status(ctx context.Context, opID string) (OpStatus, error) {
	return pm.store.GetStatus(ctx, opID)
}
