package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadb/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestStoreQueryRunAssignsIDAndTimestamp(t *testing.T) {
	d := newTestDB(t)

	run := &models.QueryRun{Route: "generate", SQL: "SELECT 1;", RowCount: 1}
	require.NoError(t, d.StoreQueryRun(run))

	assert.NotEmpty(t, run.ID)
	assert.NotEmpty(t, run.Timestamp)
	_, err := time.Parse(time.RFC3339, run.Timestamp)
	assert.NoError(t, err)
}

func TestRecentQueryRunsNewestFirst(t *testing.T) {
	d := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := &models.QueryRun{
			Route:     "pattern",
			Question:  "q",
			SQL:       "SELECT 1;",
			Timestamp: base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		}
		require.NoError(t, d.StoreQueryRun(run))
	}

	runs, err := d.RecentQueryRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].Timestamp > runs[1].Timestamp)
	assert.True(t, runs[1].Timestamp > runs[2].Timestamp)
}

func TestRecentQueryRunsLimit(t *testing.T) {
	d := newTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.StoreQueryRun(&models.QueryRun{Route: "agents", SQL: "SELECT 1;"}))
	}

	runs, err := d.RecentQueryRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecentQueryRunsEmpty(t *testing.T) {
	d := newTestDB(t)

	runs, err := d.RecentQueryRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
