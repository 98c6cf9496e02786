package service

import (
	"context"
	"strings"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/geocode"
	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"
	"github.com/iceymoss/local-blog-genius/pkg/transaction"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50
)

type LocationCreate struct {
	Name     string         `json:"name" validate:"required,min=2,max=100"`
	State    *string        `json:"state" validate:"omitempty,max=100"`
	Country  string         `json:"country" validate:"required,min=1,max=100"`
	Timezone *string        `json:"timezone" validate:"omitempty,max=50,iana_tz"`
	Metadata map[string]any `json:"metadata"`
}

func (in *LocationCreate) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Country = strings.TrimSpace(in.Country)
	trim(in.State)
	trim(in.Timezone)
}

type LocationUpdate struct {
	Name     *string        `json:"name" validate:"omitempty,min=2,max=100"`
	State    *string        `json:"state" validate:"omitempty,max=100"`
	Country  *string        `json:"country" validate:"omitempty,min=1,max=100"`
	Timezone *string        `json:"timezone" validate:"omitempty,max=50,iana_tz"`
	Metadata map[string]any `json:"metadata"`
}

func (in *LocationUpdate) normalize() {
	trim(in.Name)
	trim(in.State)
	trim(in.Country)
	trim(in.Timezone)
}

func (in LocationUpdate) toRepo() repo.LocationUpdate {
	return repo.LocationUpdate{
		Name:     in.Name,
		State:    in.State,
		Country:  in.Country,
		Timezone: in.Timezone,
		Metadata: in.Metadata,
	}
}

type CountryStats struct {
	LocationCount int64 `json:"location_count"`
	PostCount     int64 `json:"post_count"`
}

type TopLocation struct {
	Name      string `json:"name"`
	Country   string `json:"country"`
	PostCount int64  `json:"post_count"`
}

type LocationStats struct {
	TotalLocations int64                   `json:"total_locations"`
	Countries      map[string]CountryStats `json:"countries"`
	TopLocations   []TopLocation           `json:"top_locations"`
}

// LocationService 地点的增删改查、统计与地理编码
type LocationService struct {
	tx        *transaction.Manager
	repos     Repos
	geocoder  Geocoder
	validator *Validator
	log       *zap.Logger
}

func NewLocationService(tx *transaction.Manager, repos Repos, geocoder Geocoder, v *Validator, log *zap.Logger) *LocationService {
	return &LocationService{
		tx:        tx,
		repos:     repos,
		geocoder:  geocoder,
		validator: v,
		log:       log.With(zap.String("component", "location_service")),
	}
}

// GetOrCreate 不存在时以国家 Unknown 创建
func (s *LocationService) GetOrCreate(ctx context.Context, name string) (*objects.Location, error) {
	var location *objects.Location
	err := s.tx.Execute(ctx, upsertTxOptions, func(ctx context.Context) error {
		found, err := s.repos.Locations.FindByName(ctx, name)
		if err == nil {
			location = found
			return nil
		}
		if !xerrors.Is(err, xerrors.KindNotFound) {
			return err
		}
		created := &objects.Location{Name: name, Country: objects.UnknownCountry}
		if err := s.repos.Locations.InsertIfAbsent(ctx, created); err != nil {
			return err
		}
		location, err = s.repos.Locations.FindByName(ctx, name)
		return err
	})
	if err != nil {
		s.log.Error("error getting or creating location", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return location, nil
}

func (s *LocationService) Create(ctx context.Context, in LocationCreate) (*objects.Location, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.validator.Screen(in.Name); err != nil {
		return nil, err
	}
	location := &objects.Location{
		Name:     in.Name,
		State:    in.State,
		Country:  in.Country,
		Timezone: in.Timezone,
	}
	if in.Metadata != nil {
		location.Metadata = datatypes.JSONMap(in.Metadata)
	}
	if err := s.repos.Locations.Create(ctx, location); err != nil {
		return nil, err
	}
	s.log.Info("location created", zap.Uint("id", location.ID), zap.String("full_name", location.FullName()))
	return location, nil
}

func (s *LocationService) Get(ctx context.Context, id uint) (*objects.Location, error) {
	return s.repos.Locations.Get(ctx, id)
}

func (s *LocationService) List(ctx context.Context, filter repo.LocationFilter, page repo.Page) ([]objects.Location, int64, error) {
	if err := checkPage(page); err != nil {
		return nil, 0, err
	}
	items, err := s.repos.Locations.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Locations.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *LocationService) Update(ctx context.Context, id uint, in LocationUpdate) (*objects.Location, error) {
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
	var out *objects.Location
	err := s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		var err error
		out, err = s.repos.Locations.Update(ctx, id, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete 同一事务内先删文章再删地点
func (s *LocationService) Delete(ctx context.Context, id uint) error {
	return s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		if _, err := s.repos.Locations.Get(ctx, id); err != nil {
			return err
		}
		n, err := s.repos.Posts.DeleteByLocation(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repos.Locations.Delete(ctx, id); err != nil {
			return err
		}
		s.log.Info("location deleted", zap.Uint("id", id), zap.Int64("posts_deleted", n))
		return nil
	})
}

// Search 地点联想，limit 为 0 时取默认值
func (s *LocationService) Search(ctx context.Context, query string, limit int) ([]geocode.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, xerrors.Validation("query is required")
	}
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, xerrors.Validation("limit must be between 1 and %d", MaxSearchLimit)
	}
	return s.geocoder.Search(ctx, query, limit)
}

// UnknownCountry 等待补全的地点
func (s *LocationService) UnknownCountry(ctx context.Context, batch int) ([]objects.Location, error) {
	return s.repos.Locations.ListUnknownCountry(ctx, batch)
}

// Enrich 用地理编码的首条结果补全州、国家与坐标，没有结果时返回 false
func (s *LocationService) Enrich(ctx context.Context, location objects.Location) (bool, error) {
	places, err := s.geocoder.Lookup(ctx, location.Name, 1)
	if err != nil {
		s.deferEnrich(ctx, location)
		return false, err
	}
	if len(places) == 0 || places[0].Country() == "" {
		s.log.Info("no geocoding match", zap.String("name", location.Name))
		s.deferEnrich(ctx, location)
		return false, nil
	}
	place := places[0]

	metadata := map[string]any{}
	for k, v := range location.Metadata {
		metadata[k] = v
	}
	metadata["lat"] = place.Lat
	metadata["lon"] = place.Lon
	metadata["osm_type"] = place.OSMType

	update := repo.LocationUpdate{Country: ptr(place.Country()), Metadata: metadata}
	if state := place.State(); state != "" {
		update.State = ptr(state)
	}
	err = s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		_, err := s.repos.Locations.Update(ctx, location.ID, update)
		return err
	})
	if err != nil {
		return false, err
	}
	s.log.Info("location enriched", zap.Uint("id", location.ID), zap.String("name", location.Name),
		zap.String("country", place.Country()))
	return true, nil
}

// deferEnrich 未能补全的地点排到待补全队列末尾
func (s *LocationService) deferEnrich(ctx context.Context, location objects.Location) {
	if err := s.repos.Locations.Touch(ctx, location.ID, time.Now()); err != nil {
		s.log.Warn("touch location failed", zap.Uint("id", location.ID), zap.Error(err))
	}
}

func (s *LocationService) Stats(ctx context.Context) (*LocationStats, error) {
	total, err := s.repos.Locations.Count(ctx, repo.LocationFilter{})
	if err != nil {
		return nil, err
	}
	countries, err := s.repos.Stats.LocationCountries(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.repos.Stats.TopLocations(ctx, topN)
	if err != nil {
		return nil, err
	}

	stats := &LocationStats{
		TotalLocations: total,
		Countries:      make(map[string]CountryStats, len(countries)),
		TopLocations:   make([]TopLocation, 0, len(top)),
	}
	for _, c := range countries {
		stats.Countries[c.Group] = CountryStats{LocationCount: c.EntityCount, PostCount: c.PostCount}
	}
	for _, t := range top {
		stats.TopLocations = append(stats.TopLocations, TopLocation{Name: t.Name, Country: t.Country, PostCount: t.PostCount})
	}
	return stats, nil
}
