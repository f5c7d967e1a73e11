package client

import (
	"math"
	"strconv"
	"time"

	"github.com/ecopoints/ecopoints/models"
)

// Field-alias tables: for every canonical field, the acceptable source
// field names in priority order. The first present, non-null source wins.
// One table per entity drives one generic pick-and-coerce pass, so adding
// tolerance for a new backend spelling is a one-line change.
var (
	userAliases = map[string][]string{
		"id":       {"id"},
		"name":     {"name", "username", "login"},
		"email":    {"email"},
		"avatar":   {"avatar", "picture", "avatarUrl", "avatar_url"},
		"provider": {"provider"},
	}

	activityTypeAliases = map[string][]string{
		"id":          {"id", "activityTypeId"},
		"name":        {"name", "title"},
		"description": {"description"},
		"points":      {"points"},
		"category":    {"category"},
		"co2gSaved":   {"co2gSaved", "co2g_saved", "co2Saved"},
	}

	activityLogAliases = map[string][]string{
		"id":             {"activityId", "id"},
		"userId":         {"userId", "user_id"},
		"activityTypeId": {"activityTypeId", "activity_type_id"},
		"points":         {"points"},
		"category":       {"category"},
		"createdAt":      {"occurredAt", "createdAt", "created_at"},
		"description":    {"description"},
		"co2gSaved":      {"co2gSaved", "co2g_saved"},
	}

	leaderboardAliases = map[string][]string{
		"userId":         {"userId", "user_id", "id"},
		"name":           {"name", "username", "userName"},
		"totalPoints":    {"totalPoints", "total_points", "points", "score"},
		"totalCo2gSaved": {"totalCo2gSaved", "total_co2g_saved", "co2gSaved"},
		"rank":           {"rank", "position"},
	}

	challengeAliases = map[string][]string{
		"id":          {"id", "challengeID", "challengeId"},
		"title":       {"title", "name"},
		"description": {"description"},
		"points":      {"points"},
		"progress":    {"progress"},
		"target":      {"target", "goal"},
		"status":      {"status"},
	}
)

// pick returns the first present, non-null source field for the aliases.
func pick(obj map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		if value, ok := obj[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// pickString coerces to a string; numeric ids are stringified because ids
// are opaque and always compared as strings.
func pickString(obj map[string]interface{}, aliases []string) string {
	value, ok := pick(obj, aliases)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// pickNumber coerces to a float64, yielding 0 when the field is absent,
// null, or unparseable. Arithmetic downstream never sees a NaN.
func pickNumber(obj map[string]interface{}, aliases []string) float64 {
	value, ok := pick(obj, aliases)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func pickInt(obj map[string]interface{}, aliases []string) int {
	return int(pickNumber(obj, aliases))
}

// pickBool treats the listed aliases as equivalent completion flags.
func pickBool(obj map[string]interface{}, aliases []string) bool {
	value, ok := pick(obj, aliases)
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// pickTime parses a timestamp field; missing or malformed values yield the
// zero time, which downstream aggregation treats as "now".
func pickTime(obj map[string]interface{}, aliases []string) time.Time {
	value, ok := pick(obj, aliases)
	if !ok {
		return time.Time{}
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// pickObject returns a nested object field, or nil.
func pickObject(obj map[string]interface{}, key string) map[string]interface{} {
	nested, ok := obj[key].(map[string]interface{})
	if !ok {
		return nil
	}
	return nested
}

// canonicalCategory maps a freeform category value onto the closed enum;
// anything unrecognized lands in Other.
func canonicalCategory(raw string) models.ActivityCategory {
	switch models.ActivityCategory(raw) {
	case models.CategoryTransportation, models.CategoryRecycling, models.CategoryEnergy,
		models.CategoryWater, models.CategoryFood, models.CategoryOther:
		return models.ActivityCategory(raw)
	default:
		return models.CategoryOther
	}
}

// canonicalUser maps a raw user object onto the canonical User. When the
// backend returns no id, the email serves as the de-duplication key.
func canonicalUser(obj map[string]interface{}) *models.User {
	user := &models.User{
		ID:       pickString(obj, userAliases["id"]),
		Name:     pickString(obj, userAliases["name"]),
		Email:    pickString(obj, userAliases["email"]),
		Avatar:   pickString(obj, userAliases["avatar"]),
		Provider: pickString(obj, userAliases["provider"]),
	}
	if user.ID == "" {
		user.ID = user.Email
	}
	if user.ID == "" && user.Name == "" && user.Email == "" {
		return nil
	}
	return user
}

func canonicalActivityType(obj map[string]interface{}) models.ActivityType {
	return models.ActivityType{
		ID:          pickString(obj, activityTypeAliases["id"]),
		Name:        pickString(obj, activityTypeAliases["name"]),
		Description: pickString(obj, activityTypeAliases["description"]),
		Points:      pickInt(obj, activityTypeAliases["points"]),
		Category:    canonicalCategory(pickString(obj, activityTypeAliases["category"])),
		CO2gSaved:   pickNumber(obj, activityTypeAliases["co2gSaved"]),
	}
}

// canonicalActivityLog maps a raw log onto the canonical ActivityLog.
// Points, category, and co2 fall back to the embedded activity type when
// the log itself carries none, matching how the backend denormalizes them.
func canonicalActivityLog(obj map[string]interface{}) models.ActivityLog {
	log := models.ActivityLog{
		ID:             pickString(obj, activityLogAliases["id"]),
		UserID:         pickString(obj, activityLogAliases["userId"]),
		ActivityTypeID: pickString(obj, activityLogAliases["activityTypeId"]),
		Points:         pickInt(obj, activityLogAliases["points"]),
		Category:       canonicalCategory(pickString(obj, activityLogAliases["category"])),
		CreatedAt:      pickTime(obj, activityLogAliases["createdAt"]),
		Description:    pickString(obj, activityLogAliases["description"]),
		CO2gSaved:      pickNumber(obj, activityLogAliases["co2gSaved"]),
	}

	if nested := pickObject(obj, "user"); nested != nil {
		log.User = canonicalUser(nested)
		if log.UserID == "" && log.User != nil {
			log.UserID = log.User.ID
		}
	}

	if nested := pickObject(obj, "activityType"); nested != nil {
		activityType := canonicalActivityType(nested)
		log.ActivityType = &activityType
		if log.ActivityTypeID == "" {
			log.ActivityTypeID = activityType.ID
		}
		if log.Points == 0 {
			log.Points = activityType.Points
		}
		if log.CO2gSaved == 0 {
			log.CO2gSaved = activityType.CO2gSaved
		}
		if _, hasOwn := pick(obj, activityLogAliases["category"]); !hasOwn {
			log.Category = activityType.Category
		}
	}

	return log
}

func canonicalLeaderboardEntry(obj map[string]interface{}) models.LeaderboardEntry {
	entry := models.LeaderboardEntry{
		UserID:        pickString(obj, leaderboardAliases["userId"]),
		Name:          pickString(obj, leaderboardAliases["name"]),
		TotalPoints:   pickInt(obj, leaderboardAliases["totalPoints"]),
		TotalCO2Saved: pickNumber(obj, leaderboardAliases["totalCo2gSaved"]),
		Rank:          pickInt(obj, leaderboardAliases["rank"]),
	}
	if nested := pickObject(obj, "user"); nested != nil {
		if user := canonicalUser(nested); user != nil {
			if entry.UserID == "" {
				entry.UserID = user.ID
			}
			if entry.Name == "" {
				entry.Name = user.Name
			}
		}
	}
	return entry
}

// canonicalChallenge maps a raw challenge and derives its status: an
// upstream completion flag (isCompleted/completed are equivalent aliases)
// or progress reaching the target marks it completed.
func canonicalChallenge(obj map[string]interface{}) models.Challenge {
	challenge := models.Challenge{
		ID:          pickString(obj, challengeAliases["id"]),
		Title:       pickString(obj, challengeAliases["title"]),
		Description: pickString(obj, challengeAliases["description"]),
		Points:      pickInt(obj, challengeAliases["points"]),
		Progress:    pickInt(obj, challengeAliases["progress"]),
		Target:      pickInt(obj, challengeAliases["target"]),
	}

	switch {
	case pickBool(obj, []string{"isCompleted", "completed"}):
		challenge.Status = models.ChallengeCompleted
	case pickString(obj, challengeAliases["status"]) == string(models.ChallengeExpired):
		challenge.Status = models.ChallengeExpired
	case challenge.Target > 0 && challenge.Progress >= challenge.Target:
		challenge.Status = models.ChallengeCompleted
	default:
		challenge.Status = models.ChallengeActive
	}

	return challenge
}
