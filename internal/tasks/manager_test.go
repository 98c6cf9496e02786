package tasks

import (
	"testing"

	"github.com/iceymoss/local-blog-genius/internal/tasks/export"
	"github.com/iceymoss/local-blog-genius/internal/tasks/geo"
	"github.com/iceymoss/local-blog-genius/internal/tasks/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(Deps{Logger: zap.NewNop()})
	assert.Equal(t, []string{export.MarkdownName, geo.EnrichLocationsName, report.StatsSnapshotName}, r.Names())

	task, err := r.GetTask(report.StatsSnapshotName)
	require.NoError(t, err)
	assert.Equal(t, report.StatsSnapshotName, task.Identifier())

	_, err = r.GetTask("sys:google_ping")
	assert.Error(t, err)
}
