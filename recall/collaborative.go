package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/shopstream/prodrec/core"
	"github.com/shopstream/prodrec/pkg/utils"
)

// Collaborative 是基于用户的协同过滤召回源（User-based Collaborative Filtering）。
//
// 核心思想："行为相似的用户，喜欢相似的商品"
//
// 算法流程：
//  1. 取目标用户的交互商品集合 U；为空则走热度兜底（冷启动）
//  2. 对每个其他用户的交互集合 V 计算 Jaccard 相似度 |U∩V| / |U∪V|
//  3. 严格大于阈值的邻居按相似度降序保留 TopK
//  4. 邻居在 U 之外的每条交互贡献 相似度 × 行为权重 × 评分因子，按商品累加
//
// 行为权重：purchase > like > view；search 贡献恒为 0。
// 刚过阈值的邻居按相似度全额贡献，不做阈值附近的平滑。
type Collaborative struct {
	Interactions core.InteractionStore

	// Params 提供阈值、邻居上限与行为权重
	Params core.Params
}

func (r *Collaborative) Name() string {
	return "recall.collaborative"
}

func (r *Collaborative) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Interactions == nil || rctx == nil || rctx.UserID == "" || limit <= 0 {
		return nil, nil
	}
	params := r.Params.Normalized()

	userInteractions, err := r.Interactions.InteractionsOf(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	// 冷启动：没有任何历史的用户返回热度榜
	if len(userInteractions) == 0 {
		return r.popularFallback(ctx, limit)
	}

	userProducts := core.ProductSet(userInteractions)

	others, err := r.Interactions.InteractionsExcludingUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	neighbors := findNeighbors(rctx.UserID, userProducts, others, params.SimilarityThreshold, params.NeighborCap)

	// 邻居在 U 之外的交互贡献：相似度 × 行为权重 × 评分因子，按商品累加
	byUser := groupByUser(others)
	scores := make(map[string]float64)
	for _, nb := range neighbors {
		for _, inter := range byUser[nb.userID] {
			if _, known := userProducts[inter.ProductID]; known {
				continue
			}
			weight := params.TypeWeight(inter.Type)
			if weight == 0 {
				continue // search 等零权重行为
			}
			scores[inter.ProductID] += nb.similarity * weight * core.RatingFactor(inter.Rating)
		}
	}

	out := make([]*core.Item, 0, len(scores))
	for productID, score := range scores {
		it := core.NewItem(productID)
		it.Score = score
		it.PutLabel(core.LabelAlgorithm, utils.Label{Value: core.AlgorithmCollaborative, Source: "recall"})
		it.PutLabel("neighbor_count", utils.Label{Value: strconv.Itoa(len(neighbors)), Source: "recall"})
		out = append(out, it)
	}
	sortByScore(out)
	return topN(out, limit), nil
}

// popularFallback 按总交互次数降序返回热门商品，分数即原始交互次数。
// 并列按商品 ID 升序，保证冷启动结果确定可复现。
func (r *Collaborative) popularFallback(ctx context.Context, limit int) ([]*core.Item, error) {
	counts, err := r.Interactions.InteractionCountsByProduct(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(counts))
	for productID, count := range counts {
		it := core.NewItem(productID)
		it.Score = float64(count)
		it.PutLabel(core.LabelAlgorithm, utils.Label{Value: core.AlgorithmCollaborative, Source: "recall"})
		it.PutLabel("fallback", utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, it)
	}
	sortByScore(out)
	return topN(out, limit), nil
}

type neighbor struct {
	userID     string
	similarity float64
}

// findNeighbors 计算其他用户与目标用户的 Jaccard 相似度，
// 严格大于 threshold 的按相似度降序（并列按用户 ID 升序）保留前 maxNeighbors 个。
func findNeighbors(
	userID string,
	userProducts map[string]struct{},
	others []core.Interaction,
	threshold float64,
	maxNeighbors int,
) []neighbor {
	otherSets := make(map[string]map[string]struct{})
	for _, inter := range others {
		if inter.UserID == userID {
			continue
		}
		set, ok := otherSets[inter.UserID]
		if !ok {
			set = make(map[string]struct{})
			otherSets[inter.UserID] = set
		}
		set[inter.ProductID] = struct{}{}
	}

	neighbors := make([]neighbor, 0, len(otherSets))
	for otherID, otherProducts := range otherSets {
		sim := jaccard(userProducts, otherProducts)
		if sim > threshold {
			neighbors = append(neighbors, neighbor{userID: otherID, similarity: sim})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}
	return neighbors
}

// jaccard 计算两个集合的 Jaccard 相似度 |A∩B| / |A∪B|；并集为空时为 0。
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	intersection := 0
	for k := range small {
		if _, ok := large[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func groupByUser(interactions []core.Interaction) map[string][]core.Interaction {
	grouped := make(map[string][]core.Interaction)
	for _, inter := range interactions {
		grouped[inter.UserID] = append(grouped[inter.UserID], inter)
	}
	return grouped
}
