package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/core"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"go.uber.org/zap"
)

const (
	EnrichLocationsName = "geo:enrich_locations"

	defaultBatch    = 10
	defaultInterval = time.Second
)

// LocationEnricher *service.LocationService 满足该接口
type LocationEnricher interface {
	UnknownCountry(ctx context.Context, batch int) ([]objects.Location, error)
	Enrich(ctx context.Context, location objects.Location) (bool, error)
}

// EnrichLocationsTask 为自动创建的地点补全州、国家和坐标
// 参数: batch 每次处理条数, interval 两次查询间隔 (Nominatim 限制每秒 1 次)
type EnrichLocationsTask struct {
	locations LocationEnricher
	log       *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewEnrichLocations(locations LocationEnricher, log *zap.Logger) core.Task {
	return &EnrichLocationsTask{
		locations: locations,
		log:       log.With(zap.String("task", EnrichLocationsName)),
		sleep:     sleepCtx,
	}
}

func (t *EnrichLocationsTask) Identifier() string {
	return EnrichLocationsName
}

func (t *EnrichLocationsTask) Run(ctx context.Context, params map[string]any) error {
	batch := core.IntParam(params, "batch", defaultBatch)
	interval := core.DurationParam(params, "interval", defaultInterval)

	pending, err := t.locations.UnknownCountry(ctx, batch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		t.log.Debug("no locations to enrich")
		return nil
	}

	enriched, failed := 0, 0
	for i, loc := range pending {
		if i > 0 {
			if err := t.sleep(ctx, interval); err != nil {
				return err
			}
		}
		ok, err := t.locations.Enrich(ctx, loc)
		if err != nil {
			failed++
			t.log.Warn("enrich location failed", zap.Uint("id", loc.ID), zap.String("name", loc.Name), zap.Error(err))
			continue
		}
		if ok {
			enriched++
		}
	}

	t.log.Info("location enrichment finished",
		zap.Int("candidates", len(pending)), zap.Int("enriched", enriched), zap.Int("failed", failed))
	if failed == len(pending) {
		return fmt.Errorf("all %d lookups failed", failed)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
