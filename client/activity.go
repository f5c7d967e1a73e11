package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ecopoints/ecopoints/models"
)

// ActivityTypeInput is the payload for creating or updating an activity
// type. CO2gSaved is a pointer so that "omitted" is distinguishable from
// an explicit 0; either way the request carries a concrete number.
type ActivityTypeInput struct {
	Name        string
	Description string
	Points      int
	Category    models.ActivityCategory
	CO2gSaved   *float64
}

// payload builds the request body. co2gSaved is always present (defaulting
// to 0) because the backend column is non-nullable, and it is sent under
// both the camelCase and snake_case spellings for compatibility.
func (in ActivityTypeInput) payload() map[string]interface{} {
	co2 := 0.0
	if in.CO2gSaved != nil {
		co2 = *in.CO2gSaved
	}
	return map[string]interface{}{
		"name":        in.Name,
		"description": in.Description,
		"points":      in.Points,
		"category":    in.Category,
		"co2gSaved":   co2,
		"co2g_saved":  co2,
	}
}

// ActivityTypes lists the catalogue of loggable activities.
func (c *Client) ActivityTypes() ([]models.ActivityType, error) {
	body, err := c.do(http.MethodGet, "/activities", nil)
	if err != nil {
		return nil, err
	}

	items := unwrapList(body)
	types := make([]models.ActivityType, 0, len(items))
	for _, item := range items {
		types = append(types, canonicalActivityType(decodeItem(item)))
	}
	return types, nil
}

// ActivityTypeByID fetches one activity type.
func (c *Client) ActivityTypeByID(id string) (*models.ActivityType, error) {
	body, err := c.do(http.MethodGet, "/activities/"+id, nil)
	if err != nil {
		return nil, err
	}
	activityType := canonicalActivityType(unwrapObject(body))
	if activityType.ID == "" {
		return nil, errors.New("activity type not found in response")
	}
	return &activityType, nil
}

// CreateActivityType registers a custom activity type and records the
// local milestone flag once the backend accepted it.
func (c *Client) CreateActivityType(input ActivityTypeInput) (*models.ActivityType, error) {
	body, err := c.do(http.MethodPost, "/activities", input.payload())
	if err != nil {
		return nil, err
	}

	c.session.MarkActivityTypeCreated()

	activityType := canonicalActivityType(unwrapObject(body))
	return &activityType, nil
}

// UpdateActivityType overwrites an activity type.
func (c *Client) UpdateActivityType(id string, input ActivityTypeInput) (*models.ActivityType, error) {
	body, err := c.do(http.MethodPut, "/activities/"+id, input.payload())
	if err != nil {
		return nil, err
	}
	activityType := canonicalActivityType(unwrapObject(body))
	return &activityType, nil
}

// DeleteActivityType removes an activity type.
func (c *Client) DeleteActivityType(id string) error {
	_, err := c.do(http.MethodDelete, "/activities/"+id, nil)
	return err
}

// AllActivityLogs lists every activity log, normalized from whichever
// shape the backend answers in (bare arrays with activityId/occurredAt
// naming included).
func (c *Client) AllActivityLogs() ([]models.ActivityLog, error) {
	body, err := c.do(http.MethodGet, "/activity-logs", nil)
	if err != nil {
		return nil, err
	}
	return canonicalLogs(unwrapList(body)), nil
}

// ActivityLogsByUser lists one user's activity logs.
func (c *Client) ActivityLogsByUser(userID string) ([]models.ActivityLog, error) {
	body, err := c.do(http.MethodGet, "/activity-logs/user/"+userID, nil)
	if err != nil {
		return nil, err
	}
	return canonicalLogs(unwrapList(body)), nil
}

// CreateActivityLog records one occurrence of an activity for the user.
// The occurredAt stamp is set client-side at call time.
func (c *Client) CreateActivityLog(userID, activityTypeID, description string) (*models.ActivityLog, error) {
	payload := map[string]interface{}{
		"userId":         userID,
		"activityTypeId": activityTypeID,
		"description":    description,
		"occurredAt":     c.now().UTC().Format(time.RFC3339),
	}

	body, err := c.do(http.MethodPost, "/activity-logs", payload)
	if err != nil {
		return nil, err
	}

	log := canonicalActivityLog(unwrapObject(body))
	return &log, nil
}

// DeleteActivityLog removes one log entry.
func (c *Client) DeleteActivityLog(id string) error {
	_, err := c.do(http.MethodDelete, "/activity-logs/"+id, nil)
	return err
}

func canonicalLogs(items []json.RawMessage) []models.ActivityLog {
	logs := make([]models.ActivityLog, 0, len(items))
	for _, item := range items {
		logs = append(logs, canonicalActivityLog(decodeItem(item)))
	}
	return logs
}
