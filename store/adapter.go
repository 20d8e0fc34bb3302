package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopstream/prodrec/core"
)

// Adapter 是基于 core.KeyValueStore 的交互图/商品目录适配器。
// 实现 core.InteractionStore 与 core.CatalogStore 接口，
// 打分核心通过它读取交互与目录数据，写入路径用于埋点与测试造数。
//
// key 约定：
//   用户交互列表：{KeyPrefix}:user:{userID}
//   所有用户列表：{KeyPrefix}:users
//   单个商品：    {KeyPrefix}:product:{productID}
//   商品枚举顺序：{KeyPrefix}:products（相似度矩阵按此顺序建立索引）
//   商品热度：    {KeyPrefix}:popularity（zset，交互写入时 ZIncrBy 累加）
type Adapter struct {
	store core.KeyValueStore

	// KeyPrefix 是存储 key 的前缀
	KeyPrefix string

	// mu 串行化本进程内的读-改-写（RecordInteraction 对用户列表的追加）
	mu sync.Mutex
}

// NewAdapter 创建一个存储适配器。
func NewAdapter(s core.KeyValueStore, keyPrefix string) *Adapter {
	if keyPrefix == "" {
		keyPrefix = "rec"
	}
	return &Adapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *Adapter) Name() string {
	return "store_adapter(" + a.store.Name() + ")"
}

func (a *Adapter) userKey(userID string) string    { return a.KeyPrefix + ":user:" + userID }
func (a *Adapter) productKey(id string) string     { return a.KeyPrefix + ":product:" + id }
func (a *Adapter) usersKey() string                { return a.KeyPrefix + ":users" }
func (a *Adapter) productsKey() string             { return a.KeyPrefix + ":products" }
func (a *Adapter) popularityKey() string           { return a.KeyPrefix + ":popularity" }

// InteractionsOf 实现 core.InteractionStore 接口。
// 用户不存在视为没有历史，返回空列表而不是错误。
func (a *Adapter) InteractionsOf(ctx context.Context, userID string) ([]core.Interaction, error) {
	data, err := a.store.Get(ctx, a.userKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var interactions []core.Interaction
	if err := json.Unmarshal(data, &interactions); err != nil {
		return nil, fmt.Errorf("decode interactions of %s: %w", userID, err)
	}
	return interactions, nil
}

// InteractionsExcludingUser 实现 core.InteractionStore 接口。
func (a *Adapter) InteractionsExcludingUser(ctx context.Context, userID string) ([]core.Interaction, error) {
	userIDs, err := a.listIDs(ctx, a.usersKey())
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == userID {
			continue
		}
		keys = append(keys, a.userKey(id))
	}

	blobs, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	// 按用户列表顺序拼接，保证结果顺序稳定
	all := make([]core.Interaction, 0, len(keys))
	for _, key := range keys {
		data, ok := blobs[key]
		if !ok {
			continue
		}
		var interactions []core.Interaction
		if err := json.Unmarshal(data, &interactions); err != nil {
			return nil, fmt.Errorf("decode interactions at %s: %w", key, err)
		}
		all = append(all, interactions...)
	}
	return all, nil
}

// InteractionCountsByProduct 实现 core.InteractionStore 接口。
// 热度从 zset 读取，交互写入时即累加，读取端无需全量扫描。
func (a *Adapter) InteractionCountsByProduct(ctx context.Context) (map[string]int64, error) {
	members, err := a.store.ZRevRangeWithScores(ctx, a.popularityKey(), 0, -1)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(members))
	for _, m := range members {
		counts[m.Member] = int64(m.Score)
	}
	return counts, nil
}

// ProductByID 实现 core.CatalogStore 接口。
func (a *Adapter) ProductByID(ctx context.Context, id string) (*core.Product, error) {
	data, err := a.store.Get(ctx, a.productKey(id))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrProductNotFound
		}
		return nil, err
	}

	var product core.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", id, err)
	}
	return &product, nil
}

// AllProducts 实现 core.CatalogStore 接口。
// 枚举顺序即 PutProducts 的写入顺序，稳定可复现。
func (a *Adapter) AllProducts(ctx context.Context) ([]*core.Product, error) {
	ids, err := a.listIDs(ctx, a.productsKey())
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, a.productKey(id))
	}
	blobs, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	products := make([]*core.Product, 0, len(ids))
	for _, key := range keys {
		data, ok := blobs[key]
		if !ok {
			// 列表里有但实体缺失：跳过，不让整个目录读取失败
			continue
		}
		var product core.Product
		if err := json.Unmarshal(data, &product); err != nil {
			return nil, fmt.Errorf("decode product at %s: %w", key, err)
		}
		products = append(products, &product)
	}
	return products, nil
}

// PutProducts 写入商品目录，追加到枚举顺序末尾（已存在的 ID 只更新实体）。
func (a *Adapter) PutProducts(ctx context.Context, products ...*core.Product) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids, err := a.listIDs(ctx, a.productsKey())
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	kvs := make(map[string][]byte, len(products))
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		kvs[a.productKey(p.ID)] = data
		if _, ok := known[p.ID]; !ok {
			known[p.ID] = struct{}{}
			ids = append(ids, p.ID)
		}
	}
	if err := a.store.BatchSet(ctx, kvs); err != nil {
		return err
	}
	return a.saveIDs(ctx, a.productsKey(), ids)
}

// RecordInteraction 追加一条交互，并同步累加商品热度。
// 进程内通过互斥锁串行化；跨进程写入需要上层保证单写者。
func (a *Adapter) RecordInteraction(ctx context.Context, inter core.Interaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	interactions, err := a.InteractionsOf(ctx, inter.UserID)
	if err != nil {
		return err
	}
	newUser := len(interactions) == 0
	interactions = append(interactions, inter)

	data, err := json.Marshal(interactions)
	if err != nil {
		return fmt.Errorf("encode interactions of %s: %w", inter.UserID, err)
	}
	if err := a.store.Set(ctx, a.userKey(inter.UserID), data); err != nil {
		return err
	}

	if newUser {
		userIDs, err := a.listIDs(ctx, a.usersKey())
		if err != nil {
			return err
		}
		if err := a.saveIDs(ctx, a.usersKey(), append(userIDs, inter.UserID)); err != nil {
			return err
		}
	}

	return a.store.ZIncrBy(ctx, a.popularityKey(), 1, inter.ProductID)
}

func (a *Adapter) listIDs(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode id list at %s: %w", key, err)
	}
	return ids, nil
}

func (a *Adapter) saveIDs(ctx context.Context, key string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

// 确保实现领域接口
var _ core.InteractionStore = (*Adapter)(nil)
var _ core.CatalogStore = (*Adapter)(nil)
