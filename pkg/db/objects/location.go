package objects

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// UnknownCountry 自动创建地点时的占位国家
const UnknownCountry = "Unknown"

// Location 对应数据库表 locations
type Location struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Name     string            `gorm:"type:varchar(100);not null;uniqueIndex:idx_locations_name" json:"name"`
	State    *string           `gorm:"type:varchar(100)" json:"state"`
	Country  string            `gorm:"type:varchar(100);not null;index" json:"country"`
	Timezone *string           `gorm:"type:varchar(50)" json:"timezone"`
	Metadata datatypes.JSONMap `json:"metadata"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (Location) TableName() string {
	return "locations"
}

// FullName 名称、州/省、国家，以逗号连接
func (l Location) FullName() string {
	parts := []string{l.Name}
	if l.State != nil && *l.State != "" {
		parts = append(parts, *l.State)
	}
	parts = append(parts, l.Country)
	return strings.Join(parts, ", ")
}
