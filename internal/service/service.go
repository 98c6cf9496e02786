package service

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/iceymoss/local-blog-genius/internal/ai"
	"github.com/iceymoss/local-blog-genius/internal/geocode"
	"github.com/iceymoss/local-blog-genius/internal/repo"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// upsertTxOptions get-or-create 的事务隔离级别
// MySQL 默认的可重复读下，插入冲突后的再次查询仍读旧快照，查不到并发写入的行
var upsertTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// Generator 内容生成，*ai.Client 满足该接口
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Result, error)
}

// TokenCounter 本地计算 token 数，*ai.Client 满足该接口
type TokenCounter interface {
	CountTokens(text string) (n int, exact bool)
}

// Geocoder 地点查询，*geocode.Client 满足该接口
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]geocode.Suggestion, error)
	Lookup(ctx context.Context, query string, limit int) ([]geocode.Place, error)
}

// Repos 服务层依赖的全部仓储
type Repos struct {
	Industries *repo.IndustryRepo
	Locations  *repo.LocationRepo
	Posts      *repo.PostRepo
	Stats      *repo.StatsRepo
	Jobs       *repo.JobRepo
}

func NewRepos(conn *gorm.DB, sx *sqlx.DB, log *zap.Logger) Repos {
	return Repos{
		Industries: repo.NewIndustryRepo(conn, log),
		Locations:  repo.NewLocationRepo(conn, log),
		Posts:      repo.NewPostRepo(conn, log),
		Stats:      repo.NewStatsRepo(sx, log),
		Jobs:       repo.NewJobRepo(conn, log),
	}
}

const topN = 5

// checkPage limit 为 0 时由仓储取默认值
func checkPage(page repo.Page) error {
	if page.Skip < 0 {
		return xerrors.Validation("skip must be >= 0")
	}
	if page.Limit < 0 || page.Limit > repo.MaxLimit {
		return xerrors.Validation("limit must be between 1 and %d", repo.MaxLimit)
	}
	return nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func ptr[T any](v T) *T {
	return &v
}
