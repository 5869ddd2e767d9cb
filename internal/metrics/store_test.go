package metrics

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"meal-shell/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := database.NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db.SQL)
	s.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	return s, path
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	today := s.now()
	yesterday := today.AddDate(0, 0, -1)
	old := today.AddDate(0, 0, -40)

	for _, m := range []RequestMetric{
		{Method: http.MethodGet, Path: "/api/recipes", Status: 200, Latency: 40 * time.Millisecond, Timestamp: today},
		{Method: http.MethodGet, Path: "/api/recipes", Status: 200, CacheHit: true, Timestamp: today},
		{Method: http.MethodPost, Path: "/api/plans", Status: 422, Latency: 20 * time.Millisecond, Timestamp: today},
		{Method: http.MethodGet, Path: "/api/plans", Status: 0, Latency: 10 * time.Millisecond, Timestamp: yesterday},
		{Method: http.MethodGet, Path: "/api/plans", Status: 200, Timestamp: old},
	} {
		require.NoError(t, s.Record(ctx, m))
	}

	usage, err := s.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, DailyUsage{Date: "2024-01-10", Requests: 3, CacheHits: 1, Failures: 1, AvgLatencyMS: 30}, usage[0])
	assert.Equal(t, DailyUsage{Date: "2024-01-09", Requests: 1, Failures: 1, AvgLatencyMS: 10}, usage[1])

	health, err := s.GetStateHealth(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), health.Requests)
	assert.NotEmpty(t, health.Size)

	t.Run("Cleanup", func(t *testing.T) {
		removed, err := s.Cleanup(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		health, err := s.GetStateHealth(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, int64(4), health.Requests)
	})
}

func TestGetStateHealthReportsQueryFailure(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.db.Close())

	health, err := s.GetStateHealth(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, path, health.Path)
	assert.Zero(t, health.Requests)
}

func TestRequestMetricFailed(t *testing.T) {
	assert.False(t, RequestMetric{Status: 204}.Failed())
	assert.True(t, RequestMetric{Status: 401}.Failed())
	assert.True(t, RequestMetric{}.Failed())
}
