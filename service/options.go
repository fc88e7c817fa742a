package service

import (
	"time"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/interaction"
	"github.com/rushteam/storerank/recall"
	"github.com/rushteam/storerank/rerank"
)

// MaxLimit 是单次请求允许的最大条数。
const MaxLimit = 100

// FeedOptions 是首页混排参数。
type FeedOptions struct {
	TrendingLimit  int           // 参与混排的热门条数（默认 20）
	PersonalLimit  int           // 参与混排的个性化条数（默认 16）
	Limit          int           // 最终返回条数（默认 24）
	MaxPerCategory int           // 每个品类最多条数，0 表示不限
	Rule           string        // CEL 保留规则，为空不启用
	Blacklist      []string      // 运营屏蔽的商品 ID
	HidePurchased  bool          // 过滤用户近期已购商品
	SourceTimeout  time.Duration // 单个来源的超时，0 表示只受请求超时约束
}

// Options 汇总推荐服务的全部可调参数。
type Options struct {
	Similar                recall.SimilarWeights
	Personal               recall.PersonalWeights
	Attachment             recall.AttachmentWeights
	AccessorySubcategories []string

	PersonalWindow    time.Duration
	PersonalMaxEvents int

	Blend map[core.SourceType]float64
	Feed  FeedOptions

	// InteractionWeights 是 Track 与订单购买行为写入日志时使用的权重
	InteractionWeights interaction.Weights
	// TrendingBump 是每件已购商品为热门榜增加的分值（默认 1）
	TrendingBump float64
}

// DefaultOptions 返回默认参数。
func DefaultOptions() Options {
	return Options{
		Similar:                recall.DefaultSimilarWeights(),
		Personal:               recall.DefaultPersonalWeights(),
		Attachment:             recall.DefaultAttachmentWeights(),
		AccessorySubcategories: recall.DefaultAccessorySubcategories,
		PersonalWindow:         90 * 24 * time.Hour,
		PersonalMaxEvents:      400,
		Blend:                  rerank.DefaultBlendWeights(),
		Feed: FeedOptions{
			TrendingLimit: 20,
			PersonalLimit: 16,
			Limit:         24,
		},
		InteractionWeights: interaction.DefaultWeights(),
		TrendingBump:       1,
	}
}
