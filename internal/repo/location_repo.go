package repo

import (
	"context"
	"time"

	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationFilter struct {
	Name    *string
	State   *string
	Country *string
}

func (f LocationFilter) scopes() []scope {
	var out []scope
	if f.Name != nil {
		out = append(out, whereEq("name", *f.Name))
	}
	if f.State != nil {
		out = append(out, whereEq("state", *f.State))
	}
	if f.Country != nil {
		out = append(out, whereEq("country", *f.Country))
	}
	return out
}

// LocationUpdate 允许更新的字段
type LocationUpdate struct {
	Name     *string
	State    *string
	Country  *string
	Timezone *string
	Metadata map[string]any
}

func (u LocationUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.State != nil {
		cols["state"] = *u.State
	}
	if u.Country != nil {
		cols["country"] = *u.Country
	}
	if u.Timezone != nil {
		cols["timezone"] = *u.Timezone
	}
	if u.Metadata != nil {
		cols["metadata"] = datatypes.JSONMap(u.Metadata)
	}
	return cols
}

type LocationRepo struct {
	crud[objects.Location]
}

func NewLocationRepo(conn *gorm.DB, log *zap.Logger) *LocationRepo {
	return &LocationRepo{crud: newCrud[objects.Location](conn, "location", log)}
}

func (r *LocationRepo) Create(ctx context.Context, location *objects.Location) error {
	return r.create(ctx, location)
}

func (r *LocationRepo) Get(ctx context.Context, id uint) (*objects.Location, error) {
	return r.get(ctx, id)
}

func (r *LocationRepo) List(ctx context.Context, filter LocationFilter, page Page) ([]objects.Location, error) {
	return r.list(ctx, page, filter.scopes()...)
}

func (r *LocationRepo) Count(ctx context.Context, filter LocationFilter) (int64, error) {
	return r.count(ctx, filter.scopes()...)
}

func (r *LocationRepo) Update(ctx context.Context, id uint, update LocationUpdate) (*objects.Location, error) {
	if err := r.update(ctx, id, update.Columns()); err != nil {
		return nil, err
	}
	return r.get(ctx, id)
}

func (r *LocationRepo) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

func (r *LocationRepo) FindByName(ctx context.Context, name string) (*objects.Location, error) {
	var location objects.Location
	if err := r.conn(ctx).Where("name = ?", name).First(&location).Error; err != nil {
		return nil, r.fail("find_by_name", err)
	}
	return &location, nil
}

// InsertIfAbsent 名称冲突时什么都不做
func (r *LocationRepo) InsertIfAbsent(ctx context.Context, location *objects.Location) error {
	err := r.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(location).Error
	if err != nil {
		return r.fail("insert_if_absent", err)
	}
	return nil
}

// ListUnknownCountry 自动创建、尚未补全国家的地点，最久未处理的在前
func (r *LocationRepo) ListUnknownCountry(ctx context.Context, limit int) ([]objects.Location, error) {
	var out []objects.Location
	err := r.conn(ctx).
		Where("country = ?", objects.UnknownCountry).
		Order("updated_at, id").Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, r.fail("list_unknown_country", err)
	}
	return out, nil
}

// Touch 只刷新 updated_at
func (r *LocationRepo) Touch(ctx context.Context, id uint, at time.Time) error {
	err := r.conn(ctx).Model(&objects.Location{}).Where("id = ?", id).UpdateColumn("updated_at", at).Error
	if err != nil {
		return r.fail("touch", err)
	}
	return nil
}
