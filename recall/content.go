package recall

import (
	"context"
	"strconv"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/pkg/utils"
)

// ContentBased 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想："用户喜欢过的商品，内容相近的商品也值得推"
//
// 算法流程：
//  1. 取用户 like/purchase 过的商品作为种子；没有种子则返回空
//  2. 从 SimilarityProvider 拿当前代相似度快照（时效管理在提供方）
//  3. 对每个种子读相似度行，严格大于阈值且用户未交互过的商品记为候选
//  4. 同一候选被多个种子命中时取最大相似度，不累加
//
// 候选分数有界于 [0,1]（余弦相似度），与协同召回的无界累加分天然不同尺度。
type ContentBased struct {
	Interactions core.InteractionStore
	Similarity   core.SimilarityProvider

	// Params 提供相似度阈值
	Params core.Params
}

func (r *ContentBased) Name() string {
	return "recall.content"
}

func (r *ContentBased) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Interactions == nil || r.Similarity == nil || rctx == nil || rctx.UserID == "" || limit <= 0 {
		return nil, nil
	}
	params := r.Params.Normalized()

	userInteractions, err := r.Interactions.InteractionsOf(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	seeds := core.SeedProducts(userInteractions)
	if len(seeds) == 0 {
		return nil, nil
	}

	snapshot, err := r.Similarity.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	interacted := core.ProductSet(userInteractions)

	// 同一候选取所有种子中的最大相似度
	scores := make(map[string]float64)
	for _, seedID := range seeds {
		row, ok := snapshot.Row(seedID)
		if !ok {
			continue // 种子不在当前目录里（已下架等），跳过
		}
		for pos, sim := range row {
			candidateID := snapshot.ProductIDs[pos]
			if candidateID == seedID {
				continue
			}
			if _, known := interacted[candidateID]; known {
				continue
			}
			if sim <= params.SimilarityThreshold {
				continue
			}
			if sim > scores[candidateID] {
				scores[candidateID] = sim
			}
		}
	}

	out := make([]*core.Item, 0, len(scores))
	for productID, score := range scores {
		it := core.NewItem(productID)
		it.Score = score
		it.PutLabel(core.LabelAlgorithm, utils.Label{Value: core.AlgorithmContentBased, Source: "recall"})
		it.PutLabel("seed_count", utils.Label{Value: strconv.Itoa(len(seeds)), Source: "recall"})
		out = append(out, it)
	}
	sortByScore(out)
	return topN(out, limit), nil
}
