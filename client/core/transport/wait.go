package transport

import (
	"context"
	"fmt"
	"time"
)

// StatusGetter 能查询交易状态的节点
type StatusGetter interface {
	GetBlockItemStatus(ctx context.Context, hash string) (*BlockItemStatus, error)
}

// WaitForFinalization 按 interval 轮询直到交易最终确定
func WaitForFinalization(ctx context.Context, node StatusGetter, hash string, interval time.Duration) (*BlockItemSummary, error) {
	return Watch(ctx, node, hash, interval, nil)
}

// Watch 顺序轮询交易状态直到最终确定；每次未确定的状态回调 onStatus（可为 nil）
//
// 定时器在上一次查询返回后才重新计时，查询不会重叠。
// 查询出错立即返回；ctx 取消或超时返回 ctx.Err()。
func Watch(ctx context.Context, node StatusGetter, hash string, interval time.Duration, onStatus func(TransactionStatus)) (*BlockItemSummary, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		status, err := node.GetBlockItemStatus(ctx, hash)
		if err != nil {
			return nil, err
		}
		if status == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		if status.Status == StatusFinalized {
			if status.Outcome == nil {
				return nil, fmt.Errorf("finalized block item %s without outcome", hash)
			}
			return status.Outcome, nil
		}
		if onStatus != nil {
			onStatus(status.Status)
		}
		timer.Reset(interval)
	}
}
