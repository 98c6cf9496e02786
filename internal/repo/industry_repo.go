package repo

import (
	"context"

	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IndustryFilter 列表过滤条件，nil 表示不过滤
type IndustryFilter struct {
	Name     *string
	Category *string
}

func (f IndustryFilter) scopes() []scope {
	var out []scope
	if f.Name != nil {
		out = append(out, whereEq("name", *f.Name))
	}
	if f.Category != nil {
		out = append(out, whereEq("category", *f.Category))
	}
	return out
}

// IndustryUpdate 允许更新的字段
type IndustryUpdate struct {
	Name        *string
	Description *string
	Category    *string
}

func (u IndustryUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	return cols
}

type IndustryRepo struct {
	crud[objects.Industry]
}

func NewIndustryRepo(conn *gorm.DB, log *zap.Logger) *IndustryRepo {
	return &IndustryRepo{crud: newCrud[objects.Industry](conn, "industry", log)}
}

func (r *IndustryRepo) Create(ctx context.Context, industry *objects.Industry) error {
	return r.create(ctx, industry)
}

func (r *IndustryRepo) Get(ctx context.Context, id uint) (*objects.Industry, error) {
	return r.get(ctx, id)
}

func (r *IndustryRepo) List(ctx context.Context, filter IndustryFilter, page Page) ([]objects.Industry, error) {
	return r.list(ctx, page, filter.scopes()...)
}

func (r *IndustryRepo) Count(ctx context.Context, filter IndustryFilter) (int64, error) {
	return r.count(ctx, filter.scopes()...)
}

func (r *IndustryRepo) Update(ctx context.Context, id uint, update IndustryUpdate) (*objects.Industry, error) {
	if err := r.update(ctx, id, update.Columns()); err != nil {
		return nil, err
	}
	return r.get(ctx, id)
}

func (r *IndustryRepo) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

// FindByName 按名称精确查找
func (r *IndustryRepo) FindByName(ctx context.Context, name string) (*objects.Industry, error) {
	var industry objects.Industry
	if err := r.conn(ctx).Where("name = ?", name).First(&industry).Error; err != nil {
		return nil, r.fail("find_by_name", err)
	}
	return &industry, nil
}

// InsertIfAbsent 名称冲突时不插入也不报错，调用方随后按名称重新查询
func (r *IndustryRepo) InsertIfAbsent(ctx context.Context, industry *objects.Industry) error {
	err := r.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(industry).Error
	if err != nil {
		return r.fail("insert_if_absent", err)
	}
	return nil
}

// Related 同分类的其他行业
func (r *IndustryRepo) Related(ctx context.Context, category string, excludeID uint, limit int) ([]objects.Industry, error) {
	var out []objects.Industry
	err := r.conn(ctx).
		Where("category = ? AND id <> ?", category, excludeID).
		Order("name").Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, r.fail("related", err)
	}
	return out, nil
}
