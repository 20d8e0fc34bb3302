package core

import "time"

// Product 是商品目录中的一条记录。
// 打分过程中视为只读；Category 与 Description 参与内容特征构建，
// 其余字段是展示属性，不影响打分。
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"rating_count"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}
