package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaderboardBackend(leaderboardStatus int, leaderboardBody, logsBody string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(leaderboardStatus)
		w.Write([]byte(leaderboardBody))
	})
	mux.HandleFunc("/activity-logs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(logsBody))
	})
	return mux
}

// tieLogs yields point sums A=30, B=10, C=30 in that arrival order.
const tieLogs = `[
	{"id":"1","points":30,"user":{"id":"a","name":"userA"}},
	{"id":"2","points":10,"user":{"id":"b","name":"userB"}},
	{"id":"3","points":30,"user":{"id":"c","name":"userC"}}
]`

// Ties keep first-seen order: A(30) rank 1, C(30) rank 2, B(10) rank 3.
func TestLeaderboardRankingDeterminism(t *testing.T) {
	c, _ := newTestClient(t, leaderboardBackend(http.StatusNotFound, `{"message":"Not Found"}`, tieLogs))

	entries, err := c.Leaderboard()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "userA", entries[0].Name)
	assert.Equal(t, 30, entries[0].TotalPoints)
	assert.Equal(t, 1, entries[0].Rank)

	assert.Equal(t, "userC", entries[1].Name)
	assert.Equal(t, 30, entries[1].TotalPoints)
	assert.Equal(t, 2, entries[1].Rank)

	assert.Equal(t, "userB", entries[2].Name)
	assert.Equal(t, 10, entries[2].TotalPoints)
	assert.Equal(t, 3, entries[2].Rank)
}

// A syntactically valid but empty leaderboard also falls back to logs.
func TestLeaderboardEmptyResultFallback(t *testing.T) {
	c, _ := newTestClient(t, leaderboardBackend(http.StatusOK, `{"data":[]}`, tieLogs))

	entries, err := c.Leaderboard()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "userA", entries[0].Name)
}

func TestLeaderboardPrimaryResultUsed(t *testing.T) {
	body := `{"data":[{"userId":"x","name":"Xenia","totalPoints":99,"totalCo2gSaved":10,"rank":1}]}`
	c, _ := newTestClient(t, leaderboardBackend(http.StatusOK, body, `[]`))

	entries, err := c.Leaderboard()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Xenia", entries[0].Name)
	assert.Equal(t, 99, entries[0].TotalPoints)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestLeaderboardAuthErrorPropagates(t *testing.T) {
	c, _ := newTestClient(t, leaderboardBackend(http.StatusForbidden, `{"message":"forbidden"}`, tieLogs))

	_, err := c.Leaderboard()
	require.Error(t, err)
	assert.EqualError(t, err, "forbidden")
}

func TestLeaderboardCO2Accumulation(t *testing.T) {
	logs := `[
		{"id":"1","userId":"a","points":5,"activityType":{"id":"t1","points":5,"co2gSaved":100}},
		{"id":"2","userId":"a","points":5,"activityType":{"id":"t1","points":5,"co2gSaved":100}}
	]`
	c, _ := newTestClient(t, leaderboardBackend(http.StatusInternalServerError, `{"message":"boom"}`, logs))

	entries, err := c.Leaderboard()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].TotalPoints)
	assert.Equal(t, 200.0, entries[0].TotalCO2Saved)
	assert.Equal(t, "Unknown User", entries[0].Name, "logs without a user name fall back")
}
