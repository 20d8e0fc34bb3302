package core

import "time"

// InteractionType 是用户行为类型。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionLike     InteractionType = "like"
	InteractionPurchase InteractionType = "purchase"
	InteractionSearch   InteractionType = "search"
)

// Interaction 是一条用户-商品交互记录，写入后不可变，打分链路只读。
// Rating 可选，取值 [0,5]；nil 表示未评分。
type Interaction struct {
	UserID    string           `json:"user_id"`
	ProductID string           `json:"product_id"`
	Type      InteractionType  `json:"type"`
	Rating    *float64         `json:"rating,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ProductSet 返回一组交互覆盖的商品 ID 集合。
func ProductSet(interactions []Interaction) map[string]struct{} {
	set := make(map[string]struct{}, len(interactions))
	for _, inter := range interactions {
		set[inter.ProductID] = struct{}{}
	}
	return set
}

// SeedProducts 返回一组交互中 like/purchase 覆盖的商品 ID（去重、保持首次出现顺序）。
// view/search 不构成内容召回的种子。
func SeedProducts(interactions []Interaction) []string {
	seen := make(map[string]struct{}, len(interactions))
	seeds := make([]string, 0, len(interactions))
	for _, inter := range interactions {
		if inter.Type != InteractionLike && inter.Type != InteractionPurchase {
			continue
		}
		if _, ok := seen[inter.ProductID]; ok {
			continue
		}
		seen[inter.ProductID] = struct{}{}
		seeds = append(seeds, inter.ProductID)
	}
	return seeds
}
