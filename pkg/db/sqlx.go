package db

import (
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// NewSQLX 复用 gorm 的连接池，供统计类 SQL 使用
func NewSQLX(dbConn *gorm.DB) (*sqlx.DB, error) {
	pool, err := dbConn.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(pool, dbConn.Dialector.Name()), nil
}
