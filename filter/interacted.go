package filter

import (
	"context"

	"github.com/shopstream/prodrec/core"
)

// Interacted 过滤掉用户已经交互过（任何行为类型）的商品。
// 两个召回源各自已排除了已交互商品，这里是整条链路不变量的最后一道关口。
type Interacted struct {
	Interactions core.InteractionStore
}

func (f *Interacted) Name() string {
	return "filter.interacted"
}

func (f *Interacted) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Interactions == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	interactions, err := f.Interactions.InteractionsOf(ctx, rctx.UserID)
	if err != nil {
		return false, err
	}
	for _, inter := range interactions {
		if inter.ProductID == item.ProductID {
			return true, nil
		}
	}
	return false, nil
}
