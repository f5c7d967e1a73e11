package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	ID           string
	Name         string
	Email        string
	Avatar       string
	Provider     string
	PasswordHash []byte
}

type activityTypeRecord struct {
	ID          string
	Name        string
	Description string
	Points      int
	Category    string
	CO2gSaved   float64
}

type activityLogRecord struct {
	ID             string
	UserID         string
	ActivityTypeID string
	Description    string
	OccurredAt     time.Time
}

type challengeRecord struct {
	ChallengeID int
	Name        string
	Description string
	Points      int
	Target      int
	Progress    int
	IsCompleted bool
	UserID      string
}

// store holds all dev-backend state. Last writer wins; a single RWMutex is
// plenty for a local fixture server.
type store struct {
	mu         sync.RWMutex
	signingKey string

	users      map[string]*userRecord
	types      map[string]*activityTypeRecord
	logs       []*activityLogRecord
	challenges []*challengeRecord
}

func newStore(signingKey string) *store {
	s := &store{
		signingKey: signingKey,
		users:      make(map[string]*userRecord),
		types:      make(map[string]*activityTypeRecord),
	}
	s.seed()
	return s
}

// seed loads the demo fixtures: a demo account, a starter activity-type
// catalogue, a spread of logs for two users, and the challenge list.
func (s *store) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte("EcoDemo123"), bcrypt.DefaultCost)
	demo := &userRecord{ID: "2", Name: "Demo User", Email: "demo@ecopoints.com", PasswordHash: hash}
	friend := &userRecord{ID: "3", Name: "Green Neighbor", Email: "neighbor@ecopoints.com", PasswordHash: hash}
	s.users[demo.ID] = demo
	s.users[friend.ID] = friend

	cycling := &activityTypeRecord{ID: "t1", Name: "Cycle to work", Description: "Swap the car for a bike", Points: 20, Category: "Transportation", CO2gSaved: 1500}
	recycling := &activityTypeRecord{ID: "t2", Name: "Recycle glass", Description: "Bring glass to the container", Points: 10, Category: "Recycling", CO2gSaved: 300}
	meatless := &activityTypeRecord{ID: "t3", Name: "Meat-free day", Description: "Plant-based meals all day", Points: 15, Category: "Food", CO2gSaved: 2000}
	for _, t := range []*activityTypeRecord{cycling, recycling, meatless} {
		s.types[t.ID] = t
	}

	now := time.Now()
	s.logs = []*activityLogRecord{
		{ID: uuid.NewString(), UserID: demo.ID, ActivityTypeID: cycling.ID, OccurredAt: now.AddDate(0, 0, -1)},
		{ID: uuid.NewString(), UserID: demo.ID, ActivityTypeID: recycling.ID, OccurredAt: now.AddDate(0, 0, -3)},
		{ID: uuid.NewString(), UserID: friend.ID, ActivityTypeID: meatless.ID, OccurredAt: now.AddDate(0, 0, -2)},
	}

	s.challenges = []*challengeRecord{
		{ChallengeID: 1, Name: "10K Steps a Day", Description: "Walk instead of driving for short trips", Points: 100, Target: 10, Progress: 2, UserID: "2"},
		{ChallengeID: 2, Name: "Car-Free Week", Description: "Avoid using your car for one week", Points: 80, Target: 7, Progress: 0, UserID: "3"},
		{ChallengeID: 3, Name: "Plant-Based Month", Description: "Eat plant-based meals", Points: 120, Target: 30, Progress: 5, UserID: "4"},
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeBody(r *http.Request, into interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(into)
}

func (s *store) issueToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.signingKey))
}

func (s *store) userView(u *userRecord) map[string]interface{} {
	view := map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
	if u.Avatar != "" {
		view["avatar"] = u.Avatar
	}
	if u.Provider != "" {
		view["provider"] = u.Provider
	}
	return view
}

// logView renders a log the way the deployed backend spells it:
// activityId/occurredAt with the user and activity type embedded.
func (s *store) logView(l *activityLogRecord) map[string]interface{} {
	view := map[string]interface{}{
		"activityId": l.ID,
		"occurredAt": l.OccurredAt.UTC().Format(time.RFC3339),
	}
	if l.Description != "" {
		view["description"] = l.Description
	}
	if u, ok := s.users[l.UserID]; ok {
		view["user"] = s.userView(u)
	} else {
		view["user"] = map[string]interface{}{"id": l.UserID}
	}
	if t, ok := s.types[l.ActivityTypeID]; ok {
		view["activityType"] = s.typeView(t)
	}
	return view
}

func (s *store) typeView(t *activityTypeRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":          t.ID,
		"name":        t.Name,
		"description": t.Description,
		"points":      t.Points,
		"category":    t.Category,
		"co2gSaved":   t.CO2gSaved,
	}
}

func challengeView(c *challengeRecord) map[string]interface{} {
	return map[string]interface{}{
		"challengeID": c.ChallengeID,
		"name":        c.Name,
		"description": c.Description,
		"points":      c.Points,
		"target":      c.Target,
		"progress":    c.Progress,
		"isCompleted": c.IsCompleted,
		"userId":      c.UserID,
	}
}

func (s *store) findUserByIdentifier(identifier string) *userRecord {
	for _, u := range s.users {
		if u.Email == identifier || u.Name == identifier {
			return u
		}
	}
	return nil
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func (s *store) sortedUsers() []*userRecord {
	users := make([]*userRecord, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(a, b int) bool { return users[a].ID < users[b].ID })
	return users
}
