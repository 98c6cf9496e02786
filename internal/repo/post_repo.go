package repo

import (
	"context"
	"time"

	"github.com/iceymoss/local-blog-genius/pkg/db"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostFilter struct {
	IndustryID *uint
	LocationID *uint
	Style      *string
}

func (f PostFilter) scopes() []scope {
	var out []scope
	if f.IndustryID != nil {
		out = append(out, whereEq("industry_id", *f.IndustryID))
	}
	if f.LocationID != nil {
		out = append(out, whereEq("location_id", *f.LocationID))
	}
	if f.Style != nil {
		out = append(out, whereEq("style", *f.Style))
	}
	return out
}

// PostUpdate 允许更新的字段，外键与生成信息不可改
type PostUpdate struct {
	Topic   *string
	Content *string
	Style   *string
}

func (u PostUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Topic != nil {
		cols["topic"] = *u.Topic
	}
	if u.Content != nil {
		cols["content"] = *u.Content
	}
	if u.Style != nil {
		cols["style"] = *u.Style
	}
	return cols
}

func withRefs(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Industry").Preload("Location")
}

type PostRepo struct {
	crud[objects.BlogPost]
}

func NewPostRepo(conn *gorm.DB, log *zap.Logger) *PostRepo {
	return &PostRepo{crud: newCrud[objects.BlogPost](conn, "blog post", log)}
}

func (r *PostRepo) Create(ctx context.Context, post *objects.BlogPost) error {
	return r.create(ctx, post)
}

// Get 同时加载行业与地点
func (r *PostRepo) Get(ctx context.Context, id uint) (*objects.BlogPost, error) {
	return r.get(ctx, id, withRefs)
}

func (r *PostRepo) List(ctx context.Context, filter PostFilter, page Page) ([]objects.BlogPost, error) {
	return r.list(ctx, page, append(filter.scopes(), withRefs)...)
}

func (r *PostRepo) Count(ctx context.Context, filter PostFilter) (int64, error) {
	return r.count(ctx, filter.scopes()...)
}

func (r *PostRepo) Update(ctx context.Context, id uint, update PostUpdate) (*objects.BlogPost, error) {
	if err := r.update(ctx, id, update.Columns()); err != nil {
		return nil, err
	}
	return r.get(ctx, id, withRefs)
}

func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	return r.delete(ctx, id)
}

// DeleteByIndustry 删除行业下的全部文章，返回删除条数
func (r *PostRepo) DeleteByIndustry(ctx context.Context, industryID uint) (int64, error) {
	res := r.conn(ctx).Where("industry_id = ?", industryID).Delete(&objects.BlogPost{})
	if res.Error != nil {
		return 0, r.fail("delete_by_industry", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *PostRepo) DeleteByLocation(ctx context.Context, locationID uint) (int64, error) {
	res := r.conn(ctx).Where("location_id = ?", locationID).Delete(&objects.BlogPost{})
	if res.Error != nil {
		return 0, r.fail("delete_by_location", res.Error)
	}
	return res.RowsAffected, nil
}

// ListByIndustryName 按行业名称查询，最新的在前
func (r *PostRepo) ListByIndustryName(ctx context.Context, name string, page Page) ([]objects.BlogPost, error) {
	return r.listJoined(ctx, "by_industry_name",
		"JOIN industries ON industries.id = blog_posts.industry_id", "industries.name = ?", name, page)
}

func (r *PostRepo) ListByLocationName(ctx context.Context, name string, page Page) ([]objects.BlogPost, error) {
	return r.listJoined(ctx, "by_location_name",
		"JOIN locations ON locations.id = blog_posts.location_id", "locations.name = ?", name, page)
}

func (r *PostRepo) listJoined(ctx context.Context, op, join, where, name string, page Page) ([]objects.BlogPost, error) {
	page = page.normalized(10)
	var out []objects.BlogPost
	err := r.conn(ctx).Scopes(withRefs).
		Joins(join).Where(where, name).
		Order("blog_posts.created_at DESC").Order("blog_posts.id DESC").
		Offset(page.Skip).Limit(page.Limit).
		Find(&out).Error
	if err != nil {
		return nil, r.fail(op, err)
	}
	return out, nil
}

// Latest 最近生成的文章，没有文章时返回 nil, nil
func (r *PostRepo) Latest(ctx context.Context) (*objects.BlogPost, error) {
	var post objects.BlogPost
	err := r.conn(ctx).Order("created_at DESC").Order("id DESC").First(&post).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.fail("latest", err)
	}
	return &post, nil
}

// CreatedSince since 之后生成的文章，按生成时间正序
func (r *PostRepo) CreatedSince(ctx context.Context, since time.Time, limit int) ([]objects.BlogPost, error) {
	var out []objects.BlogPost
	err := r.conn(ctx).Scopes(withRefs).
		Where("created_at >= ?", since).
		Order("created_at ASC").Order("id ASC").
		Limit(Page{Limit: limit}.normalized(DefaultLimit).Limit).
		Find(&out).Error
	if err != nil {
		return nil, r.fail("created_since", err)
	}
	return out, nil
}
