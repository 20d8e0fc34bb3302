package core

import "context"

// InteractionStore 是交互图的读取接口（领域层定义，基础设施层实现）。
// 打分核心只读交互数据，写入由外部协作方负责。
type InteractionStore interface {
	// InteractionsOf 获取某个用户的全部交互
	InteractionsOf(ctx context.Context, userID string) ([]Interaction, error)

	// InteractionsExcludingUser 获取除该用户外所有用户的交互
	InteractionsExcludingUser(ctx context.Context, userID string) ([]Interaction, error)

	// InteractionCountsByProduct 获取每个商品的总交互次数（冷启动热度兜底）
	InteractionCountsByProduct(ctx context.Context) (map[string]int64, error)
}

// CatalogStore 是商品目录的读取接口。
type CatalogStore interface {
	// ProductByID 获取单个商品；不存在时返回 ErrProductNotFound
	ProductByID(ctx context.Context, id string) (*Product, error)

	// AllProducts 获取全部商品。
	// 枚举顺序必须稳定：相似度矩阵按该顺序建立行列索引。
	AllProducts(ctx context.Context) ([]*Product, error)
}

// ErrProductNotFound 表示商品不存在。
// 交互引用了缺失的商品时，打分链路静默跳过该商品而不是整体失败。
var ErrProductNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: product not found")
