package client

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statsBackend simulates a backend whose /user/stats answers with a fixed
// status while /activity-logs serves the given payload. It counts log
// fetches so tests can prove whether the synthesis path ran.
type statsBackend struct {
	statsStatus int
	logsBody    string
	logsCalls   int
}

func (b *statsBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(b.statsStatus)
		w.Write([]byte(`{"message":"stats unavailable"}`))
	})
	mux.HandleFunc("/activity-logs", func(w http.ResponseWriter, r *http.Request) {
		b.logsCalls++
		w.Write([]byte(b.logsBody))
	})
	return mux
}

func logJSON(id, userID string, points int, at time.Time) string {
	return fmt.Sprintf(`{"id":%q,"userId":%q,"points":%d,"createdAt":%q}`, id, userID, points, at.Format(time.RFC3339))
}

// The stats fallback runs on 404 and 500, and only on those; a 403 must
// propagate without touching the activity logs.
func TestStatsFallbackTriggers(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		backend := &statsBackend{statsStatus: status, logsBody: "[" + logJSON("l1", "u1", 10, now.AddDate(0, 0, -1)) + "]"}
		c, store := newTestClient(t, backend.handler())
		signIn(t, store, "u1")
		c.now = func() time.Time { return now }

		stats, err := c.UserStats()
		require.NoError(t, err, "status %d", status)
		assert.Equal(t, 1, backend.logsCalls)
		assert.Equal(t, 10, stats.TotalPoints)
	}

	backend := &statsBackend{statsStatus: http.StatusForbidden, logsBody: `[]`}
	c, store := newTestClient(t, backend.handler())
	signIn(t, store, "u1")

	_, err := c.UserStats()
	require.Error(t, err)
	assert.Equal(t, 0, backend.logsCalls, "403 must not trigger synthesis")
}

// A log 6 days old is inside the weekly window; one 8 days old is not.
func TestStatsWeeklyWindow(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	backend := &statsBackend{
		statsStatus: http.StatusNotFound,
		logsBody: "[" +
			logJSON("recent", "u1", 10, now.AddDate(0, 0, -6)) + "," +
			logJSON("old", "u1", 7, now.AddDate(0, 0, -8)) +
			"]",
	}
	c, store := newTestClient(t, backend.handler())
	signIn(t, store, "u1")
	c.now = func() time.Time { return now }

	stats, err := c.UserStats()
	require.NoError(t, err)

	assert.Equal(t, 17, stats.TotalPoints)
	assert.Equal(t, 10, stats.WeeklyPoints, "only the 6-day-old log is within the week")
	assert.Equal(t, 17, stats.MonthlyPoints)

	require.Len(t, stats.WeeklyProgress, 7)
	total := 0
	for _, day := range stats.WeeklyProgress {
		total += day.Points
	}
	assert.Equal(t, 10, total, "the 8-day-old log is outside the 7-day buckets")
	assert.Equal(t, 10, stats.WeeklyProgress[0].Points, "oldest bucket first")
	assert.Equal(t, now.AddDate(0, 0, -6).Format("Mon"), stats.WeeklyProgress[0].Day)
}

// Logs without a timestamp count as having occurred now.
func TestStatsMissingTimestampIncluded(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	backend := &statsBackend{
		statsStatus: http.StatusNotFound,
		logsBody:    `[{"id":"l1","userId":"u1","points":4}]`,
	}
	c, store := newTestClient(t, backend.handler())
	signIn(t, store, "u1")
	c.now = func() time.Time { return now }

	stats, err := c.UserStats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.WeeklyPoints)
	assert.Equal(t, 4, stats.MonthlyPoints)
	assert.Equal(t, 4, stats.WeeklyProgress[6].Points, "timestamp-free logs land in today's bucket")
}

func TestStatsFilterByUserAndRecentOrder(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	logs := ""
	for i := 0; i < 12; i++ {
		if logs != "" {
			logs += ","
		}
		logs += logJSON(fmt.Sprintf("mine-%d", i), "u1", 1, now)
	}
	logs += "," + logJSON("theirs", "u2", 100, now)

	backend := &statsBackend{statsStatus: http.StatusNotFound, logsBody: "[" + logs + "]"}
	c, store := newTestClient(t, backend.handler())
	signIn(t, store, "u1")
	c.now = func() time.Time { return now }

	stats, err := c.UserStats()
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalPoints, "other users' logs are excluded")
	require.Len(t, stats.RecentActivities, 10, "recent list is capped at 10")
	assert.Equal(t, "mine-0", stats.RecentActivities[0].ID, "arrival order, no re-sort")
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 0, stats.Rank)
}

// When the dedicated endpoint works, its payload is used as-is.
func TestStatsPrimaryEndpoint(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/stats", r.URL.Path)
		w.Write([]byte(`{"data":{"totalPoints":500,"currentStreak":3,"weeklyPoints":50,"monthlyPoints":120,"rank":2}}`))
	}))
	signIn(t, store, "u1")

	stats, err := c.UserStats()
	require.NoError(t, err)
	assert.Equal(t, 500, stats.TotalPoints)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 2, stats.Rank)
}

// If the fallback computation itself fails, the original error surfaces.
func TestStatsFallbackFailureSurfacesOriginalError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no stats endpoint"}`))
	})
	mux.HandleFunc("/activity-logs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"logs forbidden"}`))
	})

	c, store := newTestClient(t, mux)
	signIn(t, store, "u1")

	_, err := c.UserStats()
	require.Error(t, err)
	assert.EqualError(t, err, "no stats endpoint")
}
