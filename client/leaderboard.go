package client

import (
	"net/http"
	"sort"

	"github.com/ecopoints/ecopoints/models"
)

// Leaderboard returns the ranked standings. When the dedicated endpoint is
// unavailable (404/500) or answers with a syntactically valid but empty
// list, the leaderboard is computed from activity logs instead. Other
// errors propagate unchanged.
func (c *Client) Leaderboard() ([]models.LeaderboardEntry, error) {
	body, err := c.do(http.MethodGet, "/leaderboard", nil)
	if err != nil {
		if unavailable(err) {
			return c.leaderboardFromLogs()
		}
		return nil, err
	}

	items := unwrapList(body)
	if len(items) == 0 {
		return c.leaderboardFromLogs()
	}

	entries := make([]models.LeaderboardEntry, 0, len(items))
	for i, item := range items {
		entry := canonicalLeaderboardEntry(decodeItem(item))
		if entry.Rank == 0 {
			entry.Rank = i + 1
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// leaderboardFromLogs groups activity logs by user, accumulating points and
// CO2 with the same effective-value extraction the stats synthesis uses.
// Ranking is descending by total points; ties keep the order in which a
// user's first log was encountered.
func (c *Client) leaderboardFromLogs() ([]models.LeaderboardEntry, error) {
	logs, err := c.AllActivityLogs()
	if err != nil {
		return nil, err
	}
	return rankLogs(logs), nil
}

func rankLogs(logs []models.ActivityLog) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0)
	index := make(map[string]int)

	for _, log := range logs {
		userID := log.UserID
		if userID == "" && log.User != nil {
			userID = log.User.ID
		}

		i, seen := index[userID]
		if !seen {
			i = len(entries)
			index[userID] = i
			entries = append(entries, models.LeaderboardEntry{UserID: userID})
		}

		if entries[i].Name == "" && log.User != nil {
			entries[i].Name = log.User.Name
		}
		entries[i].TotalPoints += log.Points
		entries[i].TotalCO2Saved += log.CO2gSaved
	}

	for i := range entries {
		if entries[i].Name == "" {
			entries[i].Name = "Unknown User"
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].TotalPoints > entries[b].TotalPoints
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
