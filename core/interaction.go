package core

import "time"

// InteractionType 是用户对商品的行为类型。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionCart     InteractionType = "cart"
	InteractionPurchase InteractionType = "purchase"
	InteractionWishlist InteractionType = "wishlist"
)

// Valid 判断行为类型是否受支持。
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionCart, InteractionPurchase, InteractionWishlist:
		return true
	}
	return false
}

// Interaction 是只追加的用户-商品行为记录。
// 同一 (UserID, ProductID, Type) 每个自然日（UTC）至多一条，当天第一条生效。
type Interaction struct {
	UserID    string
	ProductID string
	Type      InteractionType
	Weight    float64
	Timestamp time.Time
	Day       string // DayKey(Timestamp)
	Meta      map[string]any
}

// DayKey 返回去重用的自然日 key。
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
