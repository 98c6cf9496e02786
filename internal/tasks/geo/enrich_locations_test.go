package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEnricher struct {
	pending   []objects.Location
	failFor   map[string]bool
	missFor   map[string]bool
	batch     int
	processed []string
}

func (f *fakeEnricher) UnknownCountry(_ context.Context, batch int) ([]objects.Location, error) {
	f.batch = batch
	return f.pending, nil
}

func (f *fakeEnricher) Enrich(_ context.Context, loc objects.Location) (bool, error) {
	f.processed = append(f.processed, loc.Name)
	if f.failFor[loc.Name] {
		return false, errors.New("geocoder down")
	}
	return !f.missFor[loc.Name], nil
}

func newTask(f *fakeEnricher, sleeps *[]time.Duration) *EnrichLocationsTask {
	task := NewEnrichLocations(f, zap.NewNop()).(*EnrichLocationsTask)
	task.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return task
}

func TestEnrichWaitsBetweenLookups(t *testing.T) {
	f := &fakeEnricher{pending: []objects.Location{{ID: 1, Name: "Austin"}, {ID: 2, Name: "Atlantis"}, {ID: 3, Name: "Paris"}}}
	f.missFor = map[string]bool{"Atlantis": true}
	var sleeps []time.Duration

	err := newTask(f, &sleeps).Run(context.Background(), map[string]any{"batch": 3, "interval": "2s"})
	require.NoError(t, err)

	assert.Equal(t, 3, f.batch)
	assert.Equal(t, []string{"Austin", "Atlantis", "Paris"}, f.processed)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeps)
}

func TestEnrichDefaults(t *testing.T) {
	f := &fakeEnricher{pending: []objects.Location{{Name: "Austin"}, {Name: "Paris"}}}
	var sleeps []time.Duration

	require.NoError(t, newTask(f, &sleeps).Run(context.Background(), nil))
	assert.Equal(t, defaultBatch, f.batch)
	assert.Equal(t, []time.Duration{defaultInterval}, sleeps)
}

func TestEnrichPartialFailureIsNotFatal(t *testing.T) {
	f := &fakeEnricher{
		pending: []objects.Location{{Name: "Austin"}, {Name: "Paris"}},
		failFor: map[string]bool{"Austin": true},
	}
	var sleeps []time.Duration
	assert.NoError(t, newTask(f, &sleeps).Run(context.Background(), nil))
}

func TestEnrichAllFailed(t *testing.T) {
	f := &fakeEnricher{
		pending: []objects.Location{{Name: "Austin"}},
		failFor: map[string]bool{"Austin": true},
	}
	var sleeps []time.Duration
	assert.Error(t, newTask(f, &sleeps).Run(context.Background(), nil))
}

func TestEnrichNothingPending(t *testing.T) {
	f := &fakeEnricher{}
	var sleeps []time.Duration
	require.NoError(t, newTask(f, &sleeps).Run(context.Background(), map[string]any{"batch": 5.0}))
	assert.Equal(t, 5, f.batch)
	assert.Empty(t, f.processed)
}

func TestSleepCtxHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
