// Package interaction 提供只追加的用户行为日志。
//
// 行为日志是尽力而为的分析信号：写入失败只记录日志，从不向调用方传播。
package interaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/storerank/core"
)

// Weights 是每种行为类型的默认权重。
type Weights struct {
	View     float64 `yaml:"view"`
	Cart     float64 `yaml:"cart"`
	Purchase float64 `yaml:"purchase"`
	Wishlist float64 `yaml:"wishlist"`
}

// DefaultWeights 返回默认行为权重。
func DefaultWeights() Weights {
	return Weights{View: 1, Cart: 3, Purchase: 5, Wishlist: 2}
}

// For 返回某类型的默认权重。
func (w Weights) For(t core.InteractionType) float64 {
	switch t {
	case core.InteractionView:
		return w.View
	case core.InteractionCart:
		return w.Cart
	case core.InteractionPurchase:
		return w.Purchase
	case core.InteractionWishlist:
		return w.Wishlist
	}
	return 0
}

// Log 把行为写入 InteractionStore。
type Log struct {
	store  core.InteractionStore
	logger *zap.Logger
	now    func() time.Time
}

// NewLog 创建行为日志；logger 为空时不输出。
func NewLog(store core.InteractionStore, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{store: store, logger: logger, now: time.Now}
}

// WithClock 替换时钟（测试用）。
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Record 记录一次行为。userID 或 productID 为空（匿名/游客）时静默忽略；
// 同日同类型的重复行为由存储层吸收，第一条生效。
func (l *Log) Record(ctx context.Context, userID, productID string, typ core.InteractionType, weight float64, meta map[string]any) {
	if userID == "" || productID == "" {
		return
	}
	if !typ.Valid() {
		l.logger.Warn("interaction type not supported, dropped",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.String("type", string(typ)),
		)
		return
	}

	ts := l.now().UTC()
	in := core.Interaction{
		UserID:    userID,
		ProductID: productID,
		Type:      typ,
		Weight:    weight,
		Timestamp: ts,
		Day:       core.DayKey(ts),
		Meta:      meta,
	}
	if err := l.store.UpsertInteraction(ctx, in); err != nil {
		l.logger.Warn("interaction log write failed",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}
