//go:build integration

package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/pkg/db"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("blog"),
		postgres.WithUsername("blog"),
		postgres.WithPassword("blog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Open(conf.DatabaseConfig{URL: connStr, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func TestPostgresUpsertConverges(t *testing.T) {
	conn := setupPostgres(t)
	industries := NewIndustryRepo(conn, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- industries.InsertIfAbsent(ctx, &objects.Industry{Name: "Bakery"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := industries.Count(ctx, IndustryFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPostgresUniqueViolationIsConflict(t *testing.T) {
	conn := setupPostgres(t)
	locations := NewLocationRepo(conn, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, locations.Create(ctx, &objects.Location{Name: "Austin", Country: "USA"}))
	err := locations.Create(ctx, &objects.Location{Name: "Austin", Country: "USA"})
	require.Error(t, err)
	assert.Equal(t, xerrors.KindConflict, xerrors.KindOf(err))
}

func TestPostgresStats(t *testing.T) {
	conn := setupPostgres(t)
	sx, err := db.NewSQLX(conn)
	require.NoError(t, err)
	log := zap.NewNop()
	industries := NewIndustryRepo(conn, log)
	locations := NewLocationRepo(conn, log)
	posts := NewPostRepo(conn, log)
	stats := NewStatsRepo(sx, log)
	ctx := context.Background()

	bakery := &objects.Industry{Name: "Bakery"}
	require.NoError(t, industries.Create(ctx, bakery))
	austin := &objects.Location{Name: "Austin", Country: "USA"}
	require.NoError(t, locations.Create(ctx, austin))
	for _, tokens := range []int{100, 200, 300} {
		tokens := tokens
		require.NoError(t, posts.Create(ctx, &objects.BlogPost{
			IndustryID: bakery.ID, LocationID: austin.ID,
			Topic: "Sourdough", Content: "bread", Style: "casual", TokensUsed: &tokens,
			Metadata: map[string]any{"finish_reason": "stop"},
		}))
	}

	avg, err := stats.AverageTokens(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, avg, 1e-9)

	top, err := stats.TopIndustries(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.EqualValues(t, 3, top[0].PostCount)

	cats, err := stats.IndustryCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []GroupCount{{Group: UncategorizedLabel, EntityCount: 1, PostCount: 3}}, cats)
}
