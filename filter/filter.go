package filter

import (
	"context"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/pkg/utils"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断候选是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Apply 依次对每个候选执行一组过滤器，任何一个命中即剔除该候选。
// 单个过滤器出错时跳过该过滤器、不中断整个请求。
func Apply(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
	filters []Filter,
) []*core.Item {
	if len(filters) == 0 || len(items) == 0 {
		return items
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		dropped := false
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				continue
			}
			if ok {
				dropped = true
				// 记录过滤原因（用于调试/观测）
				item.PutLabel("filtered", utils.Label{Value: "true", Source: f.Name()})
				break
			}
		}
		if dropped {
			continue
		}
		out = append(out, item)
	}
	return out
}
