package models

import (
	"time"
)

// ActivityCategory is the closed set of categories an activity type can belong to.
type ActivityCategory string

const (
	CategoryTransportation ActivityCategory = "Transportation"
	CategoryRecycling      ActivityCategory = "Recycling"
	CategoryEnergy         ActivityCategory = "Energy"
	CategoryWater          ActivityCategory = "Water"
	CategoryFood           ActivityCategory = "Food"
	CategoryOther          ActivityCategory = "Other"
)

// User is the canonical shape of an account, regardless of which backend
// field names it arrived under. IDs are opaque: they may be numeric or
// string-typed upstream, so they are always carried and compared as strings.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Provider string `json:"provider,omitempty"` // "google" | "github" | "local"
}

// ActivityType describes a loggable eco-friendly activity and its reward.
type ActivityType struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Points      int              `json:"points"`
	Category    ActivityCategory `json:"category"`
	// CO2gSaved is grams of CO2 saved per occurrence. The backend schema
	// treats this column as non-nullable, so it is always present, never
	// omitted; absence upstream canonicalizes to 0.
	CO2gSaved float64 `json:"co2gSaved"`
}

// ActivityLog is one logged occurrence of an activity. Points and category
// are denormalized copies taken from the referenced ActivityType at write
// time; ActivityType is carried when the backend embeds it.
type ActivityLog struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	ActivityTypeID string           `json:"activityTypeId"`
	ActivityType   *ActivityType    `json:"activityType,omitempty"`
	User           *User            `json:"user,omitempty"`
	Points         int              `json:"points"`
	Category       ActivityCategory `json:"category"`
	CO2gSaved      float64          `json:"co2gSaved"`
	CreatedAt      time.Time        `json:"createdAt"`
	Description    string           `json:"description,omitempty"`
}

// LeaderboardEntry is a derived ranking row; it is never stored.
type LeaderboardEntry struct {
	UserID        string  `json:"userId"`
	Name          string  `json:"name"`
	TotalPoints   int     `json:"totalPoints"`
	TotalCO2Saved float64 `json:"totalCo2gSaved"`
	Rank          int     `json:"rank"`
}

// WeeklyProgressPoint is one day of the trailing week in UserStats.
type WeeklyProgressPoint struct {
	Day    string `json:"day"`
	Points int    `json:"points"`
}

// UserStats is the dashboard aggregate, either fetched from the dedicated
// stats endpoint or synthesized from activity logs when that endpoint is
// unavailable. CurrentStreak and Rank are 0 when synthesized client-side.
type UserStats struct {
	TotalPoints      int                   `json:"totalPoints"`
	CurrentStreak    int                   `json:"currentStreak"`
	WeeklyPoints     int                   `json:"weeklyPoints"`
	MonthlyPoints    int                   `json:"monthlyPoints"`
	Rank             int                   `json:"rank"`
	RecentActivities []ActivityLog         `json:"recentActivities"`
	WeeklyProgress   []WeeklyProgressPoint `json:"weeklyProgress"`
}

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeExpired   ChallengeStatus = "expired"
)

// Challenge is a goal with a progress counter. Status derives as completed
// once Progress reaches Target (or an upstream completion flag is set).
type Challenge struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Points      int             `json:"points"`
	Progress    int             `json:"progress"`
	Target      int             `json:"target"`
	Status      ChallengeStatus `json:"status"`
}

// AuthResponse is the normalized result of login, signup, or an OAuth
// exchange. Token may be empty for backends that use cookie sessions.
type AuthResponse struct {
	User  *User  `json:"user,omitempty"`
	Token string `json:"token,omitempty"`
}
