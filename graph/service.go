package graph

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RebuildService 按固定间隔执行批量重建，实现 suture.Service。
// 失败只记录日志，不在进程内重试；下一个周期会基于同一窗口重新计算。
type RebuildService struct {
	builder  *Builder
	interval time.Duration
	onStart  bool
	logger   *zap.Logger
}

// NewRebuildService 创建周期重建服务；runOnStart 为 true 时启动后立即执行一次。
func NewRebuildService(b *Builder, interval time.Duration, runOnStart bool, logger *zap.Logger) *RebuildService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RebuildService{builder: b, interval: interval, onStart: runOnStart, logger: logger}
}

func (s *RebuildService) String() string { return "copurchase-rebuild" }

// Serve 阻塞直到 ctx 取消。
func (s *RebuildService) Serve(ctx context.Context) error {
	if s.onStart {
		s.tick(ctx)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *RebuildService) tick(ctx context.Context) {
	if _, err := s.builder.Rebuild(ctx); err != nil {
		s.logger.Error("co-purchase rebuild failed", zap.Error(err))
	}
}
