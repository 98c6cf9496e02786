package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iceymoss/local-blog-genius/internal/ai"
	"github.com/iceymoss/local-blog-genius/internal/geocode"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	"github.com/iceymoss/local-blog-genius/pkg/db"
	"github.com/iceymoss/local-blog-genius/pkg/db/dbtest"
	"github.com/iceymoss/local-blog-genius/pkg/sensitive"
	"github.com/iceymoss/local-blog-genius/pkg/transaction"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGenerator 按顺序返回 tokens 中的用量，err 非空时一律失败
type stubGenerator struct {
	mu       sync.Mutex
	tokens   []int
	err      error
	requests []ai.Request
}

func (g *stubGenerator) Generate(_ context.Context, req ai.Request) (*ai.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	used := 0
	if len(g.tokens) > 0 {
		used = g.tokens[0]
		g.tokens = g.tokens[1:]
	}
	return &ai.Result{
		Content:      "# " + req.Topic + " in " + req.Location,
		TokensUsed:   used,
		FinishReason: "stop",
	}, nil
}

type stubGeocoder struct {
	places      []geocode.Place
	byQuery     map[string][]geocode.Place
	err         error
	lastQuery   string
	lastLimit   int
	searchCalls int
}

func (g *stubGeocoder) Search(ctx context.Context, query string, limit int) ([]geocode.Suggestion, error) {
	g.searchCalls++
	places, err := g.Lookup(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]geocode.Suggestion, 0, len(places))
	for _, p := range places {
		out = append(out, p.Suggestion())
	}
	return out, nil
}

func (g *stubGeocoder) Lookup(_ context.Context, query string, limit int) ([]geocode.Place, error) {
	g.lastQuery = query
	g.lastLimit = limit
	if g.err != nil {
		return nil, g.err
	}
	if g.byQuery != nil {
		return g.byQuery[query], nil
	}
	return g.places, nil
}

type env struct {
	tx         *transaction.Manager
	validator  *Validator
	repos      Repos
	industries *IndustryService
	locations  *LocationService
	blog       *BlogService
	generator  *stubGenerator
	geocoder   *stubGeocoder
	metrics    *metrics.Metrics
}

func newEnv(t *testing.T, blocked ...string) *env {
	t.Helper()
	conn := dbtest.New(t)
	sx, err := db.NewSQLX(conn)
	require.NoError(t, err)

	log := zap.NewNop()
	repos := NewRepos(conn, sx, log)
	tx := transaction.NewManager(conn)

	var words *sensitive.Word
	if len(blocked) > 0 {
		words = sensitive.NewWord(blocked)
	}
	v := NewValidator(words)
	gen := &stubGenerator{}
	geo := &stubGeocoder{}
	m := metrics.New()

	industries := NewIndustryService(tx, repos, v, log)
	locations := NewLocationService(tx, repos, geo, v, log)
	return &env{
		tx:         tx,
		validator:  v,
		repos:      repos,
		industries: industries,
		locations:  locations,
		blog:       NewBlogService(tx, repos, industries, locations, gen, v, m, log),
		generator:  gen,
		geocoder:   geo,
		metrics:    m,
	}
}

// countingGenerator 额外提供本地 token 计数
type countingGenerator struct {
	*stubGenerator
	exact bool
}

func (g countingGenerator) CountTokens(text string) (int, bool) {
	return len(strings.Fields(text)), g.exact
}

var errProvider = errors.New("provider down")
