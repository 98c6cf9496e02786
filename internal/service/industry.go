package service

import (
	"context"
	"strings"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"
	"github.com/iceymoss/local-blog-genius/pkg/transaction"

	"go.uber.org/zap"
)

type IndustryCreate struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

func (in *IndustryCreate) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	trim(in.Description)
	trim(in.Category)
}

type IndustryUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

func (in *IndustryUpdate) normalize() {
	trim(in.Name)
	trim(in.Description)
	trim(in.Category)
}

func (in IndustryUpdate) toRepo() repo.IndustryUpdate {
	return repo.IndustryUpdate{Name: in.Name, Description: in.Description, Category: in.Category}
}

type CategoryStats struct {
	IndustryCount int64 `json:"industry_count"`
	PostCount     int64 `json:"post_count"`
}

type TopIndustry struct {
	Name      string  `json:"name"`
	Category  *string `json:"category"`
	PostCount int64   `json:"post_count"`
}

type IndustryStats struct {
	TotalIndustries int64                    `json:"total_industries"`
	Categories      map[string]CategoryStats `json:"categories"`
	TopIndustries   []TopIndustry            `json:"top_industries"`
	AverageLengths  map[string]float64       `json:"average_lengths"`
}

// IndustryService 行业的增删改查与统计
type IndustryService struct {
	tx        *transaction.Manager
	repos     Repos
	validator *Validator
	log       *zap.Logger
}

func NewIndustryService(tx *transaction.Manager, repos Repos, v *Validator, log *zap.Logger) *IndustryService {
	return &IndustryService{tx: tx, repos: repos, validator: v, log: log.With(zap.String("component", "industry_service"))}
}

// GetOrCreate 按名称查找，不存在时只写入名称
func (s *IndustryService) GetOrCreate(ctx context.Context, name string) (*objects.Industry, error) {
	var industry *objects.Industry
	err := s.tx.Execute(ctx, upsertTxOptions, func(ctx context.Context) error {
		found, err := s.repos.Industries.FindByName(ctx, name)
		if err == nil {
			industry = found
			return nil
		}
		if !xerrors.Is(err, xerrors.KindNotFound) {
			return err
		}
		if err := s.repos.Industries.InsertIfAbsent(ctx, &objects.Industry{Name: name}); err != nil {
			return err
		}
		industry, err = s.repos.Industries.FindByName(ctx, name)
		return err
	})
	if err != nil {
		s.log.Error("error getting or creating industry", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return industry, nil
}

// Create 未指定分类时按名称归类
func (s *IndustryService) Create(ctx context.Context, in IndustryCreate) (*objects.Industry, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.validator.Screen(in.Name); err != nil {
		return nil, err
	}
	industry := &objects.Industry{Name: in.Name, Description: in.Description, Category: in.Category}
	if industry.Category == nil || *industry.Category == "" {
		industry.Category = ptr(Categorize(in.Name))
	}
	if err := s.repos.Industries.Create(ctx, industry); err != nil {
		return nil, err
	}
	s.log.Info("industry created", zap.Uint("id", industry.ID), zap.String("name", industry.Name),
		zap.Stringp("category", industry.Category))
	return industry, nil
}

func (s *IndustryService) Get(ctx context.Context, id uint) (*objects.Industry, error) {
	return s.repos.Industries.Get(ctx, id)
}

func (s *IndustryService) List(ctx context.Context, filter repo.IndustryFilter, page repo.Page) ([]objects.Industry, int64, error) {
	if err := checkPage(page); err != nil {
		return nil, 0, err
	}
	items, err := s.repos.Industries.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Industries.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *IndustryService) Update(ctx context.Context, id uint, in IndustryUpdate) (*objects.Industry, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	update := in.toRepo()
	if len(update.Columns()) == 0 {
		return nil, xerrors.Validation("no fields to update")
	}
	if in.Name != nil {
		if err := s.validator.Screen(*in.Name); err != nil {
			return nil, err
		}
	}
	var out *objects.Industry
	err := s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		var err error
		out, err = s.repos.Industries.Update(ctx, id, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete 同一事务内先删文章再删行业
func (s *IndustryService) Delete(ctx context.Context, id uint) error {
	return s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		if _, err := s.repos.Industries.Get(ctx, id); err != nil {
			return err
		}
		n, err := s.repos.Posts.DeleteByIndustry(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repos.Industries.Delete(ctx, id); err != nil {
			return err
		}
		s.log.Info("industry deleted", zap.Uint("id", id), zap.Int64("posts_deleted", n))
		return nil
	})
}

// Related 同分类的其他行业，名称不存在或没有分类时返回空列表
func (s *IndustryService) Related(ctx context.Context, name string, limit int) ([]objects.Industry, error) {
	if limit <= 0 {
		limit = topN
	}
	if limit > repo.MaxLimit {
		return nil, xerrors.Validation("limit must be between 1 and %d", repo.MaxLimit)
	}
	industry, err := s.repos.Industries.FindByName(ctx, name)
	if err != nil {
		if xerrors.Is(err, xerrors.KindNotFound) {
			return []objects.Industry{}, nil
		}
		return nil, err
	}
	if industry.Category == nil {
		return []objects.Industry{}, nil
	}
	return s.repos.Industries.Related(ctx, *industry.Category, industry.ID, limit)
}

func (s *IndustryService) Stats(ctx context.Context) (*IndustryStats, error) {
	total, err := s.repos.Industries.Count(ctx, repo.IndustryFilter{})
	if err != nil {
		return nil, err
	}
	cats, err := s.repos.Stats.IndustryCategories(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.repos.Stats.TopIndustries(ctx, topN)
	if err != nil {
		return nil, err
	}
	lengths, err := s.repos.Stats.AverageContentLengths(ctx)
	if err != nil {
		return nil, err
	}

	stats := &IndustryStats{
		TotalIndustries: total,
		Categories:      make(map[string]CategoryStats, len(cats)),
		TopIndustries:   make([]TopIndustry, 0, len(top)),
		AverageLengths:  make(map[string]float64, len(lengths)),
	}
	for _, c := range cats {
		stats.Categories[c.Group] = CategoryStats{IndustryCount: c.EntityCount, PostCount: c.PostCount}
	}
	for _, t := range top {
		row := TopIndustry{Name: t.Name, PostCount: t.PostCount}
		if t.Category.Valid {
			row.Category = ptr(t.Category.String)
		}
		stats.TopIndustries = append(stats.TopIndustries, row)
	}
	for _, l := range lengths {
		stats.AverageLengths[l.Name] = round2(l.Average)
	}
	return stats, nil
}
