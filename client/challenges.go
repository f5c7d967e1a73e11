package client

import (
	"net/http"

	"github.com/ecopoints/ecopoints/models"
)

// Milestone is a fixed, client-defined challenge whose progress derives
// from state the client can observe on its own: the user's activity-log
// count, or whether they ever created a custom activity type.
type Milestone struct {
	ID          string
	Title       string
	Description string
	Points      int
	Target      int
	// CustomType marks the milestone driven by the local
	// created-an-activity-type flag instead of the log count.
	CustomType bool
}

// milestoneCatalogue is the fixed set of client-synthesized challenges,
// in display order.
var milestoneCatalogue = []Milestone{
	{ID: "milestone-first-log", Title: "First Steps", Description: "Log your first eco-friendly activity", Points: 25, Target: 1},
	{ID: "milestone-ten-logs", Title: "Getting Greener", Description: "Log 10 eco-friendly activities", Points: 100, Target: 10},
	{ID: "milestone-twentyfive-logs", Title: "Eco Warrior", Description: "Log 25 eco-friendly activities", Points: 250, Target: 25},
	{ID: "milestone-custom-type", Title: "Trailblazer", Description: "Create a custom activity type", Points: 50, Target: 1, CustomType: true},
}

// Challenges assembles the challenge list: backend-sourced challenges for
// the signed-in user (falling back to the global list when the user-scoped
// call errors or comes back empty), merged with the synthesized milestone
// catalogue. A missing challenges endpoint yields milestones over an empty
// backend list rather than an error.
func (c *Client) Challenges() ([]models.Challenge, error) {
	backend, err := c.fetchBackendChallenges()
	if err != nil {
		return nil, err
	}

	milestones, err := c.synthesizeMilestones()
	if err != nil {
		return nil, err
	}

	return MergeChallenges(backend, milestones), nil
}

func (c *Client) fetchBackendChallenges() ([]models.Challenge, error) {
	if userID := c.currentUserID(); userID != "" {
		if body, err := c.do(http.MethodGet, "/challenges/user/"+userID, nil); err == nil {
			if challenges := decodeChallenges(body); len(challenges) > 0 {
				return challenges, nil
			}
		}
		// Fall through to the global endpoint on error or empty result.
	}

	body, err := c.do(http.MethodGet, "/challenges", nil)
	if err != nil {
		if notFound(err) {
			// Backend has no challenge feature; an empty list lets the
			// caller render an empty state instead of an error state.
			return []models.Challenge{}, nil
		}
		return nil, err
	}
	return decodeChallenges(body), nil
}

func decodeChallenges(body []byte) []models.Challenge {
	items := unwrapList(body)
	challenges := make([]models.Challenge, 0, len(items))
	for _, item := range items {
		challenges = append(challenges, canonicalChallenge(decodeItem(item)))
	}
	return challenges
}

// synthesizeMilestones instantiates the catalogue against the user's
// observable state. Progress is capped at the target; a milestone is
// completed exactly when progress reaches it.
func (c *Client) synthesizeMilestones() ([]models.Challenge, error) {
	logs, err := c.AllActivityLogs()
	if err != nil {
		return nil, err
	}
	logCount := len(filterLogsByUser(logs, c.currentUserID()))

	challenges := make([]models.Challenge, 0, len(milestoneCatalogue))
	for _, m := range milestoneCatalogue {
		progress := logCount
		if m.CustomType {
			progress = 0
			if c.session.HasCreatedActivityType() {
				progress = 1
			}
		}
		if progress > m.Target {
			progress = m.Target
		}

		status := models.ChallengeActive
		if progress == m.Target {
			status = models.ChallengeCompleted
		}

		challenges = append(challenges, models.Challenge{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Points:      m.Points,
			Progress:    progress,
			Target:      m.Target,
			Status:      status,
		})
	}
	return challenges, nil
}

// MergeChallenges concatenates backend challenges (in their returned order)
// with the milestones that no backend challenge already covers (in
// catalogue order). A milestone is suppressed only by an identical id, so
// the merge is idempotent: the same inputs always yield the same output.
func MergeChallenges(backend, milestones []models.Challenge) []models.Challenge {
	seen := make(map[string]bool, len(backend))
	merged := make([]models.Challenge, 0, len(backend)+len(milestones))

	for _, challenge := range backend {
		seen[challenge.ID] = true
		merged = append(merged, challenge)
	}
	for _, milestone := range milestones {
		if !seen[milestone.ID] {
			merged = append(merged, milestone)
		}
	}
	return merged
}
