// Package rerank 负责把多个来源的候选列表混排成一个列表，并做截断/打散。
package rerank

import (
	"math"
	"sort"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/pkg/utils"
)

// DefaultBlendWeights 是各来源的默认混排权重。
func DefaultBlendWeights() map[core.SourceType]float64 {
	return map[core.SourceType]float64{
		core.SourceTrending:   1.0,
		core.SourcePersonal:   1.2,
		core.SourceSimilar:    1.0,
		core.SourceFBT:        1.0,
		core.SourceAttachment: 0.8,
	}
}

// Blend 按位置折扣合并多个候选列表。
//
// 第 r 位（从 0 开始）的条目为其所在来源贡献 w(T) / log2(3+r)。
// 同一来源内重复出现的条目只计第一次；出现在不同来源中的条目累加各来源的贡献。
// 结果按总分降序，分数相同时按首次出现的先后顺序。
// 输入列表视为已按各自来源排好序。
type Blend struct {
	// Weights 为空或缺少某来源时，该来源权重按 1.0 计
	Weights map[core.SourceType]float64
}

// Discount 返回第 rank 位的位置折扣 1/log2(3+rank)。
func Discount(rank int) float64 {
	return 1 / math.Log2(float64(3+rank))
}

func (b *Blend) weight(t core.SourceType) float64 {
	if w, ok := b.Weights[t]; ok {
		return w
	}
	return 1.0
}

// Merge 返回新的 Item 切片；输入列表中的 Item 不会被修改。
// 同一 ID 的商品视图取第一个非空的。
func (b *Blend) Merge(lists ...core.CandidateList) []*core.Item {
	type entry struct {
		item  *core.Item
		order int
		seen  map[core.SourceType]struct{}
	}
	byID := make(map[string]*entry)
	entries := make([]*entry, 0)

	for _, list := range lists {
		w := b.weight(list.Source)
		for r, it := range list.Items {
			if it == nil || it.ID == "" {
				continue
			}
			e, ok := byID[it.ID]
			if !ok {
				merged := core.NewItem(it.ID)
				e = &entry{item: merged, order: len(entries), seen: make(map[core.SourceType]struct{}, 2)}
				byID[it.ID] = e
				entries = append(entries, e)
			}
			if e.item.Product == nil && it.Product != nil {
				e.item.Product = it.Product
			}
			if _, dup := e.seen[list.Source]; dup {
				continue
			}
			e.seen[list.Source] = struct{}{}
			e.item.Score += w * Discount(r)
			for k, v := range it.Labels {
				e.item.PutLabel(k, v)
			}
			e.item.PutLabel("blend_sources", utils.Label{Value: string(list.Source), Source: "blend"})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].item.Score != entries[j].item.Score {
			return entries[i].item.Score > entries[j].item.Score
		}
		return entries[i].order < entries[j].order
	})
	out := make([]*core.Item, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.item)
	}
	return out
}
