package db

import (
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"gorm.io/gorm"
)

// Migrate 自动迁移表结构
func Migrate(dbConn *gorm.DB) error {
	return dbConn.AutoMigrate(objects.All()...)
}
