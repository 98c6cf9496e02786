package objects

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultStyle = "professional"

// BlogPost 对应数据库表 blog_posts
// 删除行业或地点时级联删除文章
type BlogPost struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	IndustryID uint      `gorm:"not null;index" json:"industry_id"`
	Industry   *Industry `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"industry,omitempty"`
	LocationID uint      `gorm:"not null;index" json:"location_id"`
	Location   *Location `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"location,omitempty"`

	Topic      string `gorm:"type:varchar(200);not null" json:"topic"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Style      string `gorm:"type:varchar(50);not null;default:professional" json:"style"`
	TokensUsed *int   `json:"tokens_used"`

	// finish_reason, generation_date
	Metadata datatypes.JSONMap `json:"metadata"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (BlogPost) TableName() string {
	return "blog_posts"
}
