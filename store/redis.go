package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/storerank/core"
)

// RedisTrending 是 Redis 有序集合实现的 TrendingStore。
// 购买时 ZINCRBY 累加热度，首页读取时 ZREVRANGE 取 TopN。
type RedisTrending struct {
	client redis.UniversalClient
	key    string
}

// NewRedisTrending 使用已有的 client 创建热门榜，key 为空时使用 "trending:products"。
func NewRedisTrending(client redis.UniversalClient, key string) *RedisTrending {
	if key == "" {
		key = "trending:products"
	}
	return &RedisTrending{client: client, key: key}
}

// DialRedis 创建 client 并 Ping 校验连接。
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.ErrStoreUnavailable(core.ModuleTrending, err)
	}
	return client, nil
}

func (r *RedisTrending) Name() string { return "redis" }

func (r *RedisTrending) TopTrending(ctx context.Context, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := r.client.ZRevRange(ctx, r.key, 0, stop).Result()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, core.ErrStoreUnavailable(core.ModuleTrending, err)
	}
	return members, nil
}

func (r *RedisTrending) BumpTrending(ctx context.Context, productID string, delta float64) error {
	if err := r.client.ZIncrBy(ctx, r.key, delta, productID).Err(); err != nil {
		return core.ErrStoreUnavailable(core.ModuleTrending, err)
	}
	return nil
}

var _ core.TrendingStore = (*RedisTrending)(nil)
