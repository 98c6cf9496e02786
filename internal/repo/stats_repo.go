package repo

import (
	"context"
	"database/sql"

	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UncategorizedLabel 分类为空的行业在统计中的名称
const UncategorizedLabel = "uncategorized"

type NameCount struct {
	Name  string `db:"name"`
	Count int64  `db:"post_count"`
}

type NameAverage struct {
	Name    string  `db:"name"`
	Average float64 `db:"avg_length"`
}

// GroupCount 分组下的实体数与文章数
type GroupCount struct {
	Group       string `db:"grp"`
	EntityCount int64  `db:"entity_count"`
	PostCount   int64  `db:"post_count"`
}

type TopIndustry struct {
	Name      string         `db:"name"`
	Category  sql.NullString `db:"category"`
	PostCount int64          `db:"post_count"`
}

type TopLocation struct {
	Name      string `db:"name"`
	Country   string `db:"country"`
	PostCount int64  `db:"post_count"`
}

const (
	postsByIndustrySQL = `
SELECT i.name AS name, COUNT(p.id) AS post_count
FROM blog_posts p
JOIN industries i ON i.id = p.industry_id
GROUP BY i.name`

	postsByLocationSQL = `
SELECT l.name AS name, COUNT(p.id) AS post_count
FROM blog_posts p
JOIN locations l ON l.id = p.location_id
GROUP BY l.name`

	averageTokensSQL = `SELECT AVG(tokens_used) FROM blog_posts`

	industryCategoriesSQL = `
SELECT COALESCE(i.category, '` + UncategorizedLabel + `') AS grp,
       COUNT(DISTINCT i.id) AS entity_count,
       COUNT(p.id) AS post_count
FROM industries i
LEFT JOIN blog_posts p ON p.industry_id = i.id
GROUP BY COALESCE(i.category, '` + UncategorizedLabel + `')`

	topIndustriesSQL = `
SELECT i.name AS name, i.category AS category, COUNT(p.id) AS post_count
FROM industries i
LEFT JOIN blog_posts p ON p.industry_id = i.id
GROUP BY i.id, i.name, i.category
ORDER BY post_count DESC, i.name ASC
LIMIT ?`

	averageLengthsSQL = `
SELECT i.name AS name, AVG(LENGTH(p.content)) AS avg_length
FROM blog_posts p
JOIN industries i ON i.id = p.industry_id
GROUP BY i.name`

	locationCountriesSQL = `
SELECT l.country AS grp,
       COUNT(DISTINCT l.id) AS entity_count,
       COUNT(p.id) AS post_count
FROM locations l
LEFT JOIN blog_posts p ON p.location_id = l.id
GROUP BY l.country`

	topLocationsSQL = `
SELECT l.name AS name, l.country AS country, COUNT(p.id) AS post_count
FROM locations l
LEFT JOIN blog_posts p ON p.location_id = l.id
GROUP BY l.id, l.name, l.country
ORDER BY post_count DESC, l.name ASC
LIMIT ?`
)

// StatsRepo 聚合统计，直接写 SQL
type StatsRepo struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStatsRepo(db *sqlx.DB, log *zap.Logger) *StatsRepo {
	return &StatsRepo{db: db, log: log.With(zap.String("entity", "stats"))}
}

func (r *StatsRepo) PostsByIndustry(ctx context.Context) ([]NameCount, error) {
	return selectAll[NameCount](ctx, r, "posts_by_industry", postsByIndustrySQL)
}

func (r *StatsRepo) PostsByLocation(ctx context.Context) ([]NameCount, error) {
	return selectAll[NameCount](ctx, r, "posts_by_location", postsByLocationSQL)
}

// AverageTokens 没有文章或 tokens_used 全为空时返回 0
func (r *StatsRepo) AverageTokens(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, averageTokensSQL); err != nil {
		return 0, r.fail("average_tokens", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (r *StatsRepo) IndustryCategories(ctx context.Context) ([]GroupCount, error) {
	return selectAll[GroupCount](ctx, r, "industry_categories", industryCategoriesSQL)
}

func (r *StatsRepo) TopIndustries(ctx context.Context, limit int) ([]TopIndustry, error) {
	return selectAll[TopIndustry](ctx, r, "top_industries", topIndustriesSQL, limit)
}

func (r *StatsRepo) AverageContentLengths(ctx context.Context) ([]NameAverage, error) {
	return selectAll[NameAverage](ctx, r, "average_lengths", averageLengthsSQL)
}

func (r *StatsRepo) LocationCountries(ctx context.Context) ([]GroupCount, error) {
	return selectAll[GroupCount](ctx, r, "location_countries", locationCountriesSQL)
}

func (r *StatsRepo) TopLocations(ctx context.Context, limit int) ([]TopLocation, error) {
	return selectAll[TopLocation](ctx, r, "top_locations", topLocationsSQL, limit)
}

func selectAll[T any](ctx context.Context, r *StatsRepo, op, query string, args ...any) ([]T, error) {
	var out []T
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, r.fail(op, err)
	}
	return out, nil
}

func (r *StatsRepo) fail(op string, err error) error {
	r.log.Error("database error", zap.String("operation", op), zap.Error(err))
	return xerrors.Persistence(err)
}
