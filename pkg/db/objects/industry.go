package objects

import "time"

// Industry 对应数据库表 industries
type Industry struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// 名称唯一，用作 get-or-create 的自然键
	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_industries_name" json:"name"`
	Description *string `gorm:"type:text" json:"description"`

	// 关键词归类: technology / healthcare / retail / services / hospitality / other
	Category *string `gorm:"type:varchar(100);index" json:"category"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Industry) TableName() string {
	return "industries"
}
