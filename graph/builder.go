// Package graph 维护商品共购图：每个完成的订单增量 +1，定期按时间窗口批量重建并整体衰减。
package graph

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/metrics"
)

// Options 是共购图的重建参数。
type Options struct {
	// Window 是批量重建扫描的订单时间窗口（默认 120 天）
	Window time.Duration

	// MinCount 是批量重建写入一对商品所需的最小共现次数（默认 2）
	MinCount int

	// Decay 是每次重建后对全部边施加的乘法衰减（默认 0.98）
	Decay float64

	// WriteBatch 是批量重建单次写入的边数（默认 1000）
	WriteBatch int
}

// DefaultOptions 返回默认重建参数。
func DefaultOptions() Options {
	return Options{
		Window:     120 * 24 * time.Hour,
		MinCount:   2,
		Decay:      0.98,
		WriteBatch: 1000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.MinCount <= 0 {
		o.MinCount = d.MinCount
	}
	if o.Decay <= 0 || o.Decay > 1 {
		o.Decay = d.Decay
	}
	if o.WriteBatch <= 0 {
		o.WriteBatch = d.WriteBatch
	}
	return o
}

// Builder 负责共购图的两条写入路径。
type Builder struct {
	edges   core.CoPurchaseStore
	orders  core.OrderStore
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewBuilder 创建共购图构建器。orders 只在批量重建时使用，可以为空。
func NewBuilder(edges core.CoPurchaseStore, orders core.OrderStore, opts Options, logger *zap.Logger, m *metrics.Metrics) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		edges:   edges,
		orders:  orders,
		opts:    opts.withDefaults(),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock 替换时钟（测试用）。
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Options 返回生效的参数。
func (b *Builder) Options() Options { return b.opts }

// ApplyOrder 是增量路径：订单内每个无序对的正反两条边各 +1。
// 各对之间不保证原子性，部分写入由下一次批量重建修正。
func (b *Builder) ApplyOrder(ctx context.Context, productIDs []string) error {
	pairs := Pairs(productIDs)
	if len(pairs) == 0 {
		return nil
	}
	edges := make([]core.CoPurchaseEdge, 0, len(pairs)*2)
	for _, p := range pairs {
		d := p.Directed(1)
		edges = append(edges, d[0], d[1])
	}
	if err := b.edges.IncrementEdges(ctx, edges); err != nil {
		return err
	}
	b.metrics.EdgesWritten("incremental", len(edges))
	return nil
}

// RebuildStats 是一次批量重建的统计。
type RebuildStats struct {
	Orders       int
	Pairs        int
	EdgesWritten int
	EdgesDecayed int64
	Duration     time.Duration
}

// Rebuild 是批量路径：扫描窗口内的订单统计共现次数，次数 >= MinCount 的商品对
// 以覆盖方式写入正反两条边，最后对全部边（包括刚写入的）施加一次衰减。
// 同一窗口重复执行得到相同结果，中途失败后重跑是安全的。
func (b *Builder) Rebuild(ctx context.Context) (RebuildStats, error) {
	began := time.Now()
	var stats RebuildStats

	counts := make(map[Pair]int)
	if b.orders != nil {
		since := b.now().Add(-b.opts.Window)
		err := b.orders.ScanOrders(ctx, since, func(o core.Order) error {
			stats.Orders++
			for _, p := range Pairs(o.ProductIDs) {
				counts[p]++
			}
			return nil
		})
		if err != nil {
			return stats, err
		}
	}

	batch := make([]core.CoPurchaseEdge, 0, b.opts.WriteBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := b.edges.SetEdges(ctx, batch); err != nil {
			return err
		}
		stats.EdgesWritten += len(batch)
		b.metrics.EdgesWritten("rebuild", len(batch))
		batch = batch[:0]
		return nil
	}
	for p, c := range counts {
		if c < b.opts.MinCount {
			continue
		}
		stats.Pairs++
		d := p.Directed(float64(c))
		batch = append(batch, d[0], d[1])
		if len(batch) >= b.opts.WriteBatch {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	decayed, err := b.edges.DecayEdges(ctx, b.opts.Decay)
	if err != nil {
		return stats, err
	}
	stats.EdgesDecayed = decayed
	stats.Duration = time.Since(began)
	b.metrics.ObserveRebuild(stats.Orders, stats.Duration)

	b.logger.Info("co-purchase graph rebuilt",
		zap.Int("orders", stats.Orders),
		zap.Int("pairs", stats.Pairs),
		zap.Int("edges_written", stats.EdgesWritten),
		zap.Int64("edges_decayed", stats.EdgesDecayed),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}
