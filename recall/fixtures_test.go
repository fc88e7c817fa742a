package recall

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/store"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func catalogFixture() *store.MemoryStore {
	ms := store.NewMemoryStore()
	ms.PutProduct(
		&core.Product{ID: "phone1", Category: "phones", Subcategory: "smartphones", Brand: "Acme",
			Tags: []string{"5g", "oled"}, CompatibleModels: []string{"acme-x"}, Price: 1000,
			Popularity: 100, RatingAvg: 4.5, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "phone2", Category: "phones", Subcategory: "smartphones", Brand: "Acme",
			Tags: []string{"5g"}, Price: 1100, Popularity: 50, RatingAvg: 4, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "phone3", Category: "phones", Subcategory: "feature-phones", Brand: "Other",
			Price: 100, Popularity: 500, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "phone4", Category: "phones", Subcategory: "smartphones", Brand: "Acme",
			Tags: []string{"5g", "oled"}, Price: 1000, Popularity: 900, InStock: false, CreatedAt: baseTime},
		&core.Product{ID: "case1", Category: "accessories", Subcategory: "cases", Brand: "Acme",
			Tags: []string{"leather"}, CompatibleModels: []string{"acme-x"}, Price: 30,
			Popularity: 10, IsAccessory: true, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "case2", Category: "accessories", Subcategory: "cases", Brand: "Other",
			CompatibleModels: []string{"other-y"}, Price: 20, Popularity: 300,
			IsAccessory: true, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "charger", Category: "accessories", Subcategory: "chargers", Brand: "Acme",
			CompatibleModels: []string{"acme-x", "acme-z"}, Price: 40, Popularity: 20,
			IsAccessory: true, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "sticker", Category: "misc", Subcategory: "stickers", Brand: "Other",
			Popularity: 1000, IsAccessory: true, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "laptop", Category: "laptops", Subcategory: "ultrabooks", Brand: "Acme",
			Price: 1000, Popularity: 40, InStock: true, CreatedAt: baseTime},
		&core.Product{ID: "nocat", Brand: "Acme", Price: 1000, InStock: true, CreatedAt: baseTime},
	)
	return ms
}

func canceledCtx() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// crowd 写入 n 个热门但属性匹配很弱的商品，ID 为 prefix+序号，销量 10+序号。
// 数量大于任何按销量截断的候选池，用来验证打分发生在截断之前。
func crowd(ms *store.MemoryStore, n int, prefix string, mk func(p *core.Product)) {
	for i := 0; i < n; i++ {
		p := &core.Product{
			ID:         fmt.Sprintf("%s%d", prefix, i),
			Popularity: int64(10 + i),
			InStock:    true,
			CreatedAt:  baseTime,
		}
		mk(p)
		ms.PutProduct(p)
	}
}
