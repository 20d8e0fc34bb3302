package core

import "github.com/shopstream/prodrec/pkg/utils"

// Item 是打分链路中的统一候选结构：商品 ID、分数、标签。
// Labels 用于解释与策略驱动（algorithm 来源、邻居数等）；Score 用于排序决策。
// Item 只在单次请求内存活，不落库。
type Item struct {
	ProductID string
	Score     float64
	Labels    map[string]utils.Label
}

func NewItem(productID string) *Item {
	return &Item{
		ProductID: productID,
		Score:     0,
		Labels:    make(map[string]utils.Label),
	}
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

// SetLabel 覆盖写入 Label，不做 Merge。
// 混合层改写 algorithm 标签（collaborative -> hybrid）时使用。
func (it *Item) SetLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	it.Labels[key] = lbl
}

// GetLabel 读取 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}

// algorithm 标签的约定 key 与取值。
const (
	LabelAlgorithm = "algorithm"

	AlgorithmCollaborative = "collaborative"
	AlgorithmContentBased  = "content_based"
	AlgorithmHybrid        = "hybrid"
)
