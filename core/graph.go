package core

import "time"

// CoPurchaseEdge 是有向带权的共购边 (ProductA -> ProductB)。
// 反向边 (B -> A) 单独存储且计数相同；Count 永远 >= 0，边不删除只衰减。
type CoPurchaseEdge struct {
	ProductA string
	ProductB string
	Count    float64
}

// Order 是批量重建时读取的已完成订单投影。
type Order struct {
	ID         string
	UserID     string
	ProductIDs []string
	CreatedAt  time.Time
}
