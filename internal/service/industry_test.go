package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndustryGetOrCreateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.industries.GetOrCreate(ctx, "Bakery")
	require.NoError(t, err)
	second, err := e.industries.GetOrCreate(ctx, "Bakery")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Nil(t, first.Description)
	assert.Nil(t, first.Category)
}

// MySQL 上的并发场景见 mysql_integration_test.go
func TestUpsertRunsReadCommitted(t *testing.T) {
	require.NotNil(t, upsertTxOptions)
	assert.Equal(t, sql.LevelReadCommitted, upsertTxOptions.Isolation)
	assert.False(t, upsertTxOptions.ReadOnly)
}

func TestIndustryCreateDerivesCategory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	derived, err := e.industries.Create(ctx, IndustryCreate{Name: "Family Dentistry"})
	require.NoError(t, err)
	require.NotNil(t, derived.Category)
	assert.Equal(t, "healthcare", *derived.Category)

	explicit, err := e.industries.Create(ctx, IndustryCreate{Name: "Bakery", Category: ptr("retail")})
	require.NoError(t, err)
	assert.Equal(t, "retail", *explicit.Category)

	_, err = e.industries.Create(ctx, IndustryCreate{Name: "Bakery"})
	assert.Equal(t, xerrors.KindConflict, xerrors.KindOf(err))

	_, err = e.industries.Create(ctx, IndustryCreate{Name: "X"})
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
}

func TestIndustryUpdateAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bakery, err := e.industries.Create(ctx, IndustryCreate{Name: "Bakery"})
	require.NoError(t, err)
	_, err = e.industries.Create(ctx, IndustryCreate{Name: "Web Development Studio"})
	require.NoError(t, err)

	updated, err := e.industries.Update(ctx, bakery.ID, IndustryUpdate{Category: ptr("retail")})
	require.NoError(t, err)
	assert.Equal(t, "retail", *updated.Category)
	assert.Equal(t, "Bakery", updated.Name)

	_, err = e.industries.Update(ctx, bakery.ID, IndustryUpdate{})
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	items, total, err := e.industries.List(ctx, repo.IndustryFilter{Category: ptr("technology")}, repo.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Web Development Studio", items[0].Name)

	_, _, err = e.industries.List(ctx, repo.IndustryFilter{}, repo.Page{Skip: -1})
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
}

func TestIndustryDeleteRemovesPosts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post, err := e.blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)

	require.NoError(t, e.industries.Delete(ctx, post.IndustryID))

	_, err = e.blog.Get(ctx, post.ID)
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))
	_, err = e.industries.Get(ctx, post.IndustryID)
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))

	// 地点保留
	_, err = e.locations.Get(ctx, post.LocationID)
	assert.NoError(t, err)

	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(e.industries.Delete(ctx, post.IndustryID)))
}

func TestIndustryRelated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, name := range []string{"Dental Clinic", "Medical Lab", "Pharmacy Plus", "Bakery"} {
		_, err := e.industries.Create(ctx, IndustryCreate{Name: name})
		require.NoError(t, err)
	}

	related, err := e.industries.Related(ctx, "Dental Clinic", 0)
	require.NoError(t, err)
	names := make([]string, 0, len(related))
	for _, in := range related {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{"Medical Lab", "Pharmacy Plus"}, names)

	limited, err := e.industries.Related(ctx, "Dental Clinic", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	unknown, err := e.industries.Related(ctx, "Nope", 5)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestIndustryStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// 7 个行业各 1 篇，Plumbing 2 篇
	names := []string{"Zoo", "Cafe", "Bakery", "Apps", "Dental", "Yoga", "Plumbing"}
	for _, name := range names {
		in := bakeryInput()
		in.Industry = name
		_, err := e.blog.CreatePost(ctx, in)
		require.NoError(t, err)
	}
	extra := bakeryInput()
	extra.Industry = "Plumbing"
	_, err := e.blog.CreatePost(ctx, extra)
	require.NoError(t, err)
	_, err = e.industries.Create(ctx, IndustryCreate{Name: "Software House"})
	require.NoError(t, err)

	stats, err := e.industries.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 8, stats.TotalIndustries)

	assert.Equal(t, CategoryStats{IndustryCount: 7, PostCount: 8}, stats.Categories["uncategorized"])
	assert.Equal(t, CategoryStats{IndustryCount: 1, PostCount: 0}, stats.Categories["technology"])

	top := make([]string, 0, len(stats.TopIndustries))
	for _, row := range stats.TopIndustries {
		top = append(top, fmt.Sprintf("%s:%d", row.Name, row.PostCount))
	}
	assert.Equal(t, []string{"Plumbing:2", "Apps:1", "Bakery:1", "Cafe:1", "Dental:1"}, top)

	content := "# Sourdough trends in Austin"
	assert.Equal(t, float64(len(content)), stats.AverageLengths["Bakery"])
}

func TestIndustryStatsEmpty(t *testing.T) {
	e := newEnv(t)
	stats, err := e.industries.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalIndustries)
	assert.Empty(t, stats.Categories)
	assert.Empty(t, stats.TopIndustries)
	assert.Empty(t, stats.AverageLengths)
}
