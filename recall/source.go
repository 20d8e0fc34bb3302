package recall

import (
	"context"
	"sort"

	"github.com/shopstream/prodrec/core"
)

// Source 表示一个可复用的召回源（协同/内容/...）。
// limit 是该源最多产出的候选数；limit <= 0 时产出为空。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error)
}

// sortByScore 按分数降序排序，分数相同按商品 ID 升序。
// 并列顺序是实现定义的，但必须确定可复现。
func sortByScore(items []*core.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ProductID < items[j].ProductID
	})
}

// topN 截断到前 n 个。
func topN(items []*core.Item, n int) []*core.Item {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}
