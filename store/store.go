// Package store 提供 core 中存储接口的实现：
//
//	var catalog core.CatalogStore = store.NewMemoryStore()
//	var edges core.CoPurchaseStore = mongoStore
//	var trending core.TrendingStore = store.NewRedisTrending(client, "trending:products")
package store

import (
	"sort"

	"github.com/rushteam/storerank/core"
)

// sortProducts 按 query 的排序方式原地排序，与 Mongo 端的 sort 规则保持一致。
func sortProducts(products []*core.Product, s core.ProductSort) {
	switch s {
	case core.SortPopularity:
		sort.SliceStable(products, func(i, j int) bool {
			a, b := products[i], products[j]
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].ID < products[j].ID
		})
	}
}

// sortEdges 按 count 降序排序，count 相同时按 ProductB 升序。
func sortEdges(edges []core.CoPurchaseEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Count != edges[j].Count {
			return edges[i].Count > edges[j].Count
		}
		return edges[i].ProductB < edges[j].ProductB
	})
}
