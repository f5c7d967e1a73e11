package client

import (
	"net/http"
	"time"

	"github.com/ecopoints/ecopoints/models"
)

const recentActivityCount = 10

// UserStats returns the dashboard aggregate. When the dedicated stats
// endpoint is unavailable (404/500), an equivalent result is synthesized
// from activity logs; authorization and validation failures propagate
// unchanged.
func (c *Client) UserStats() (*models.UserStats, error) {
	body, err := c.do(http.MethodGet, "/user/stats", nil)
	if err != nil {
		if unavailable(err) {
			stats, synthErr := c.statsFromLogs()
			if synthErr != nil {
				// The fallback itself failed; surface the original error.
				return nil, err
			}
			return stats, nil
		}
		return nil, err
	}

	return canonicalStats(unwrapObject(body)), nil
}

func canonicalStats(obj map[string]interface{}) *models.UserStats {
	stats := &models.UserStats{
		TotalPoints:      pickInt(obj, []string{"totalPoints", "total_points"}),
		CurrentStreak:    pickInt(obj, []string{"currentStreak", "current_streak", "streak"}),
		WeeklyPoints:     pickInt(obj, []string{"weeklyPoints", "weekly_points"}),
		MonthlyPoints:    pickInt(obj, []string{"monthlyPoints", "monthly_points"}),
		Rank:             pickInt(obj, []string{"rank"}),
		RecentActivities: []models.ActivityLog{},
		WeeklyProgress:   []models.WeeklyProgressPoint{},
	}

	if recent, ok := obj["recentActivities"].([]interface{}); ok {
		for _, item := range recent {
			if m, ok := item.(map[string]interface{}); ok {
				stats.RecentActivities = append(stats.RecentActivities, canonicalActivityLog(m))
			}
		}
	}

	if progress, ok := obj["weeklyProgress"].([]interface{}); ok {
		for _, item := range progress {
			if m, ok := item.(map[string]interface{}); ok {
				stats.WeeklyProgress = append(stats.WeeklyProgress, models.WeeklyProgressPoint{
					Day:    pickString(m, []string{"day", "label"}),
					Points: pickInt(m, []string{"points"}),
				})
			}
		}
	}

	return stats
}

// statsFromLogs derives UserStats from the full activity-log list. Logs are
// filtered to the signed-in user when one is known; logs without a
// timestamp count as having occurred now, favoring inclusion over exclusion
// on missing data. Streak and rank are not derivable here and stay 0.
func (c *Client) statsFromLogs() (*models.UserStats, error) {
	allLogs, err := c.AllActivityLogs()
	if err != nil {
		return nil, err
	}

	logs := filterLogsByUser(allLogs, c.currentUserID())

	now := c.now()
	weekCutoff := now.AddDate(0, 0, -7)
	monthCutoff := now.AddDate(0, 0, -30)

	stats := &models.UserStats{
		RecentActivities: []models.ActivityLog{},
		WeeklyProgress:   make([]models.WeeklyProgressPoint, 0, 7),
	}

	for _, log := range logs {
		points := log.Points
		stats.TotalPoints += points

		at := log.CreatedAt
		if at.IsZero() {
			at = now
		}
		if !at.Before(weekCutoff) {
			stats.WeeklyPoints += points
		}
		if !at.Before(monthCutoff) {
			stats.MonthlyPoints += points
		}

		if len(stats.RecentActivities) < recentActivityCount {
			stats.RecentActivities = append(stats.RecentActivities, log)
		}
	}

	// One bucket per trailing calendar day, oldest first, today included.
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		points := 0
		for _, log := range logs {
			at := log.CreatedAt
			if at.IsZero() {
				at = now
			}
			at = at.In(day.Location())
			if !at.Before(dayStart) && at.Before(dayEnd) {
				points += log.Points
			}
		}

		stats.WeeklyProgress = append(stats.WeeklyProgress, models.WeeklyProgressPoint{
			Day:    dayStart.Format("Mon"),
			Points: points,
		})
	}

	return stats, nil
}

// filterLogsByUser keeps logs belonging to userID, compared as strings
// because ids are opaque. An empty userID keeps everything.
func filterLogsByUser(logs []models.ActivityLog, userID string) []models.ActivityLog {
	if userID == "" {
		return logs
	}
	filtered := make([]models.ActivityLog, 0, len(logs))
	for _, log := range logs {
		if log.UserID == userID || (log.User != nil && log.User.ID == userID) {
			filtered = append(filtered, log)
		}
	}
	return filtered
}
