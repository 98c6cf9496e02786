package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func bakeryInput() BlogPostCreate {
	return BlogPostCreate{Industry: "Bakery", Location: "Austin", Topic: "Sourdough trends", Style: "casual"}
}

func TestCreatePostRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.generator.tokens = []int{1200}

	before, err := e.blog.Stats(ctx)
	require.NoError(t, err)

	post, err := e.blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, "Sourdough trends", post.Topic)
	assert.Equal(t, "casual", post.Style)
	assert.Equal(t, "# Sourdough trends in Austin", post.Content)
	require.NotNil(t, post.TokensUsed)
	assert.Equal(t, 1200, *post.TokensUsed)
	require.NotNil(t, post.Industry)
	assert.Equal(t, "Bakery", post.Industry.Name)
	assert.Nil(t, post.Industry.Category)
	require.NotNil(t, post.Location)
	assert.Equal(t, objects.UnknownCountry, post.Location.Country)

	assert.Equal(t, "stop", post.Metadata["finish_reason"])
	generated, ok := post.Metadata["generation_date"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, generated)
	assert.NoError(t, err)

	after, err := e.blog.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.PostsByIndustry["Bakery"]+1, after.PostsByIndustry["Bakery"])
	assert.Equal(t, before.TotalPosts+1, after.TotalPosts)
	require.NotNil(t, after.LastGenerated)

	expected := `
# HELP blog_posts_created_total Blog posts persisted
# TYPE blog_posts_created_total counter
blog_posts_created_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(e.metrics.Registry(), strings.NewReader(expected), "blog_posts_created_total"))
}

func TestCreatePostReusesReferenceRows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)
	second, err := e.blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)

	assert.Equal(t, first.IndustryID, second.IndustryID)
	assert.Equal(t, first.LocationID, second.LocationID)

	n, err := e.repos.Industries.Count(ctx, repo.IndustryFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCreatePostDefaultsStyleAndTrims(t *testing.T) {
	e := newEnv(t)
	in := BlogPostCreate{Industry: "  Bakery ", Location: " Austin", Topic: " Sourdough trends "}

	post, err := e.blog.CreatePost(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, objects.DefaultStyle, post.Style)
	assert.Equal(t, "Sourdough trends", post.Topic)
	assert.Equal(t, "Bakery", post.Industry.Name)

	require.Len(t, e.generator.requests, 1)
	assert.Equal(t, "professional", e.generator.requests[0].Style)
}

func TestCreatePostGenerationFailureLeavesNoPost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.generator.err = xerrors.Wrap(xerrors.KindRetryExhausted, errProvider, "content generation failed")

	_, err := e.blog.CreatePost(ctx, bakeryInput())
	require.Error(t, err)
	assert.Equal(t, xerrors.KindRetryExhausted, xerrors.KindOf(err))

	total, err := e.repos.Posts.Count(ctx, repo.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	// 行业与地点在生成前已提交
	_, err = e.repos.Industries.FindByName(ctx, "Bakery")
	assert.NoError(t, err)
}

func TestCreatePostValidation(t *testing.T) {
	cases := []struct {
		name string
		in   BlogPostCreate
		msg  string
	}{
		{"short industry", BlogPostCreate{Industry: "B", Location: "Austin", Topic: "Sourdough trends"}, "industry must be at least 2"},
		{"missing location", BlogPostCreate{Industry: "Bakery", Location: "   ", Topic: "Sourdough trends"}, "location is required"},
		{"short topic", BlogPostCreate{Industry: "Bakery", Location: "Austin", Topic: "Hi"}, "topic must be at least 5"},
		{"long style", BlogPostCreate{Industry: "Bakery", Location: "Austin", Topic: "Sourdough trends", Style: strings.Repeat("x", 51)}, "style must be at most 50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.blog.CreatePost(context.Background(), tc.in)
			require.Error(t, err)
			assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
			assert.Contains(t, err.Error(), tc.msg)
			assert.Empty(t, e.generator.requests)
		})
	}
}

func TestCreatePostBlockedWord(t *testing.T) {
	e := newEnv(t, "casino")
	in := bakeryInput()
	in.Topic = "Why Casino nights sell bread"

	_, err := e.blog.CreatePost(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
	assert.Contains(t, err.Error(), "blocked word")
	assert.Empty(t, e.generator.requests)
}

func TestStatsAverageTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	empty, err := e.blog.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalPosts)
	assert.Equal(t, 0.0, empty.AverageTokens)
	assert.Nil(t, empty.LastGenerated)
	assert.Empty(t, empty.PostsByIndustry)

	e.generator.tokens = []int{100, 200, 300}
	for i := 0; i < 3; i++ {
		_, err := e.blog.CreatePost(ctx, bakeryInput())
		require.NoError(t, err)
	}

	stats, err := e.blog.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalPosts)
	assert.Equal(t, 200.0, stats.AverageTokens)
	assert.Equal(t, map[string]int64{"Austin": 3}, stats.PostsByLocation)
}

func TestCreatePostCountsTokensWhenUsageMissing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gen := countingGenerator{stubGenerator: e.generator, exact: false}
	blog := NewBlogService(e.tx, e.repos, e.industries, e.locations, gen, e.validator, e.metrics, zap.NewNop())

	// 服务端未上报用量
	post, err := blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)
	require.NotNil(t, post.TokensUsed)
	assert.Equal(t, 5, *post.TokensUsed) // "# Sourdough trends in Austin"
	assert.Equal(t, true, post.Metadata["tokens_counted"])
	assert.Equal(t, false, post.Metadata["tokens_exact"])

	// 上报的用量优先
	e.generator.tokens = []int{300}
	post, err = blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)
	require.NotNil(t, post.TokensUsed)
	assert.Equal(t, 300, *post.TokensUsed)
	assert.NotContains(t, post.Metadata, "tokens_counted")

	stats, err := blog.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 152.5, stats.AverageTokens)
}

func TestCreatePostWithoutUsageOrCounterStoresNull(t *testing.T) {
	e := newEnv(t)
	post, err := e.blog.CreatePost(context.Background(), bakeryInput())
	require.NoError(t, err)
	assert.Nil(t, post.TokensUsed)
	assert.NotContains(t, post.Metadata, "tokens_counted")
}

func TestStatsRoundsAverage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.generator.tokens = []int{1, 1, 2}
	for i := 0; i < 3; i++ {
		_, err := e.blog.CreatePost(ctx, bakeryInput())
		require.NoError(t, err)
	}

	stats, err := e.blog.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.33, stats.AverageTokens)
}

func TestUpdatePostAllowList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post, err := e.blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)

	updated, err := e.blog.Update(ctx, post.ID, BlogPostUpdate{Content: ptr("Edited body")})
	require.NoError(t, err)
	assert.Equal(t, "Edited body", updated.Content)
	assert.Equal(t, post.Topic, updated.Topic)
	assert.Equal(t, post.IndustryID, updated.IndustryID)

	_, err = e.blog.Update(ctx, post.ID, BlogPostUpdate{})
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	_, err = e.blog.Update(ctx, post.ID, BlogPostUpdate{Topic: ptr("abc")})
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	_, err = e.blog.Update(ctx, post.ID+100, BlogPostUpdate{Style: ptr("formal")})
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))
}

func TestListAndDeletePosts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first, err := e.blog.CreatePost(ctx, bakeryInput())
	require.NoError(t, err)
	other := bakeryInput()
	other.Style = "formal"
	_, err = e.blog.CreatePost(ctx, other)
	require.NoError(t, err)

	items, total, err := e.blog.List(ctx, repo.PostFilter{Style: ptr("formal")}, repo.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "formal", items[0].Style)

	_, _, err = e.blog.List(ctx, repo.PostFilter{}, repo.Page{Limit: 5000})
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))

	require.NoError(t, e.blog.Delete(ctx, first.ID))
	_, err = e.blog.Get(ctx, first.ID)
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(err))
	assert.Equal(t, xerrors.KindNotFound, xerrors.KindOf(e.blog.Delete(ctx, first.ID)))
}

func TestPostsByIndustryAndLocation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := e.blog.CreatePost(ctx, bakeryInput())
		require.NoError(t, err)
	}
	cafe := bakeryInput()
	cafe.Industry = "Cafe"
	cafe.Location = "Dallas"
	_, err := e.blog.CreatePost(ctx, cafe)
	require.NoError(t, err)

	byIndustry, err := e.blog.ByIndustry(ctx, "Bakery", repo.Page{})
	require.NoError(t, err)
	assert.Len(t, byIndustry, DefaultByNameLimit)

	byLocation, err := e.blog.ByLocation(ctx, "Dallas", repo.Page{})
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.Equal(t, "Cafe", byLocation[0].Industry.Name)

	none, err := e.blog.ByIndustry(ctx, "Nope", repo.Page{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
