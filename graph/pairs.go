package graph

import "github.com/rushteam/storerank/core"

// Pair 是一个无序商品对，A < B。
type Pair struct {
	A, B string
}

// Distinct 去掉空 ID 与重复 ID，保持首次出现的顺序。
func Distinct(productIDs []string) []string {
	seen := make(map[string]struct{}, len(productIDs))
	out := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Pairs 返回订单内所有无序商品对（k 个不同商品产生 k*(k-1)/2 对）。
func Pairs(productIDs []string) []Pair {
	ids := Distinct(productIDs)
	if len(ids) < 2 {
		return nil
	}
	out := make([]Pair, 0, len(ids)*(len(ids)-1)/2)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			if b < a {
				a, b = b, a
			}
			out = append(out, Pair{A: a, B: b})
		}
	}
	return out
}

// Directed 把无序对展开为正反两条有向边，计数相同。
func (p Pair) Directed(count float64) [2]core.CoPurchaseEdge {
	return [2]core.CoPurchaseEdge{
		{ProductA: p.A, ProductB: p.B, Count: count},
		{ProductA: p.B, ProductB: p.A, Count: count},
	}
}
