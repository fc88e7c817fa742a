package core

import "github.com/rushteam/storerank/pkg/utils"

// Item 是推荐链路中的统一承载结构：商品 ID、分数、商品视图、标签。
// Labels 用于解释与观测；Score 用于排序决策。两者都不会返回给调用方。
type Item struct {
	ID      string
	Score   float64
	Product *Product // 目录 join 后的商品视图，可能为空（例如来自热门榜的 ID）
	Labels  map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// NewProductItem 基于商品视图创建 Item。
func NewProductItem(p *Product, score float64) *Item {
	it := NewItem(p.ID)
	it.Product = p
	it.Score = score
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SourceType 标记候选列表由哪个打分器产出。
type SourceType string

const (
	SourceSimilar    SourceType = "similar"
	SourceFBT        SourceType = "fbt"
	SourcePersonal   SourceType = "personal"
	SourceTrending   SourceType = "trending"
	SourceAttachment SourceType = "attachment"

	// SourceHome 只用作首页混排结果的响应类型，不参与 Blend 权重。
	SourceHome SourceType = "home"
)

// CandidateList 是单个打分器产出的有序候选列表。
type CandidateList struct {
	Source SourceType
	Items  []*Item
}

// Len 返回候选数量。
func (l CandidateList) Len() int { return len(l.Items) }

// IDs 按顺序返回商品 ID。
func (l CandidateList) IDs() []string {
	out := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		out = append(out, it.ID)
	}
	return out
}

// EmptyList 返回指定来源的空列表（not-found 的统一表示）。
func EmptyList(source SourceType) CandidateList {
	return CandidateList{Source: source, Items: []*Item{}}
}
