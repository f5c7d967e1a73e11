package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type credentialsPayload struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordHash string `json:"passwordHash"`
}

func (p credentialsPayload) password() string {
	if p.Password != "" {
		return p.Password
	}
	return p.PasswordHash
}

func (s *store) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Email == "" || payload.password() == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findUserByIdentifier(payload.Email) != nil {
		writeError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.password()), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &userRecord{
		ID:           uuid.NewString(),
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: hash,
	}
	s.users[user.ID] = user

	// The deployed backend returns the user object directly, no envelope.
	writeJSON(w, http.StatusCreated, s.userView(user))
}

func (s *store) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	identifier := payload.Email
	if identifier == "" {
		identifier = payload.Name
	}

	s.mu.RLock()
	user := s.findUserByIdentifier(identifier)
	s.mu.RUnlock()

	if user == nil || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(payload.password())) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"token": token,
			"user":  s.userView(user),
		},
	})
}

func (s *store) handleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *store) handleOAuthExchange(w http.ResponseWriter, r *http.Request) {
	provider := pathVar(r, "provider")

	var payload struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.Code == "" {
		writeError(w, http.StatusBadRequest, "Missing code")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The dev backend trusts any non-empty code and signs in a provider
	// demo identity, the way the original mock exchange did.
	email := provider + "-user@ecopoints.com"
	user := s.findUserByIdentifier(email)
	if user == nil {
		user = &userRecord{
			ID:       uuid.NewString(),
			Name:     "Demo " + provider + " user",
			Email:    email,
			Provider: provider,
		}
		s.users[user.ID] = user
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  s.userView(user),
	})
}

func (s *store) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	s.mu.RLock()
	user, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    s.userView(user),
	})
}

func (s *store) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]map[string]interface{}, 0, len(s.users))
	for _, u := range s.sortedUsers() {
		views = append(views, s.userView(u))
	}

	// HAL envelope, as served by the Spring iteration of the backend.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"_embedded": map[string]interface{}{"userDtoList": views},
	})
}

func (s *store) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	user, ok := s.users[pathVar(r, "id")]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, s.userView(user))
}

func (s *store) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[pathVar(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if payload.Name != "" {
		user.Name = payload.Name
	}
	if payload.Email != "" {
		user.Email = payload.Email
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": s.userView(user)})
}

func (s *store) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := pathVar(r, "id")
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	delete(s.users, id)

	kept := s.logs[:0]
	for _, l := range s.logs {
		if l.UserID != id {
			kept = append(kept, l)
		}
	}
	s.logs = kept

	w.WriteHeader(http.StatusNoContent)
}

type activityTypePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Points      int      `json:"points"`
	Category    string   `json:"category"`
	CO2gSaved   *float64 `json:"co2gSaved"`
	CO2gSnake   *float64 `json:"co2g_saved"`
}

func (p activityTypePayload) co2() (float64, bool) {
	if p.CO2gSaved != nil {
		return *p.CO2gSaved, true
	}
	if p.CO2gSnake != nil {
		return *p.CO2gSnake, true
	}
	return 0, false
}

func (s *store) handleListActivityTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.types))
	for id := range s.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	views := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		views = append(views, s.typeView(s.types[id]))
	}

	// Bare array, no envelope.
	writeJSON(w, http.StatusOK, views)
}

func (s *store) handleGetActivityType(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	t, ok := s.types[pathVar(r, "id")]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "activity type not found")
		return
	}
	writeJSON(w, http.StatusOK, s.typeView(t))
}

func (s *store) handleCreateActivityType(w http.ResponseWriter, r *http.Request) {
	var payload activityTypePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	co2, present := payload.co2()
	if !present {
		// Mirrors the production schema's NOT NULL constraint.
		writeError(w, http.StatusBadRequest, "co2g_saved must not be null")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &activityTypeRecord{
		ID:          uuid.NewString(),
		Name:        payload.Name,
		Description: payload.Description,
		Points:      payload.Points,
		Category:    payload.Category,
		CO2gSaved:   co2,
	}
	s.types[t.ID] = t

	writeJSON(w, http.StatusCreated, s.typeView(t))
}

func (s *store) handleUpdateActivityType(w http.ResponseWriter, r *http.Request) {
	var payload activityTypePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.types[pathVar(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "activity type not found")
		return
	}
	if payload.Name != "" {
		t.Name = payload.Name
	}
	if payload.Description != "" {
		t.Description = payload.Description
	}
	if payload.Points != 0 {
		t.Points = payload.Points
	}
	if payload.Category != "" {
		t.Category = payload.Category
	}
	if co2, present := payload.co2(); present {
		t.CO2gSaved = co2
	}

	writeJSON(w, http.StatusOK, s.typeView(t))
}

func (s *store) handleDeleteActivityType(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := pathVar(r, "id")
	if _, ok := s.types[id]; !ok {
		writeError(w, http.StatusNotFound, "activity type not found")
		return
	}
	delete(s.types, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *store) handleListActivityLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]map[string]interface{}, 0, len(s.logs))
	for _, l := range s.logs {
		views = append(views, s.logView(l))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *store) handleListUserActivityLogs(w http.ResponseWriter, r *http.Request) {
	userID := pathVar(r, "id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]map[string]interface{}, 0)
	for _, l := range s.logs {
		if l.UserID == userID {
			views = append(views, s.logView(l))
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *store) handleCreateActivityLog(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID         string `json:"userId"`
		ActivityTypeID string `json:"activityTypeId"`
		Description    string `json:"description"`
		OccurredAt     string `json:"occurredAt"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[payload.ActivityTypeID]; !ok {
		writeError(w, http.StatusBadRequest, "unknown activity type")
		return
	}

	occurredAt := time.Now()
	if payload.OccurredAt != "" {
		if parsed, err := time.Parse(time.RFC3339, payload.OccurredAt); err == nil {
			occurredAt = parsed
		}
	}

	log := &activityLogRecord{
		ID:             uuid.NewString(),
		UserID:         payload.UserID,
		ActivityTypeID: payload.ActivityTypeID,
		Description:    payload.Description,
		OccurredAt:     occurredAt,
	}
	s.logs = append(s.logs, log)

	writeJSON(w, http.StatusCreated, s.logView(log))
}

func (s *store) handleDeleteActivityLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := pathVar(r, "id")
	for i, l := range s.logs {
		if l.ID == id {
			s.logs = append(s.logs[:i], s.logs[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "activity log not found")
}

func (s *store) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type total struct {
		userID string
		name   string
		points int
		co2    float64
	}

	totals := make([]*total, 0)
	index := make(map[string]int)
	for _, l := range s.logs {
		i, seen := index[l.UserID]
		if !seen {
			i = len(totals)
			index[l.UserID] = i
			name := ""
			if u, ok := s.users[l.UserID]; ok {
				name = u.Name
			}
			totals = append(totals, &total{userID: l.UserID, name: name})
		}
		if t, ok := s.types[l.ActivityTypeID]; ok {
			totals[i].points += t.Points
			totals[i].co2 += t.CO2gSaved
		}
	}

	sort.SliceStable(totals, func(a, b int) bool { return totals[a].points > totals[b].points })

	views := make([]map[string]interface{}, 0, len(totals))
	for i, t := range totals {
		views = append(views, map[string]interface{}{
			"userId":         t.userID,
			"name":           t.name,
			"totalPoints":    t.points,
			"totalCo2gSaved": t.co2,
			"rank":           i + 1,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": views})
}

func (s *store) handleChallenges(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]map[string]interface{}, 0, len(s.challenges))
	for _, c := range s.challenges {
		views = append(views, challengeView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *store) handleUserChallenges(w http.ResponseWriter, r *http.Request) {
	userID := pathVar(r, "id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]map[string]interface{}, 0)
	for _, c := range s.challenges {
		if c.UserID == userID {
			views = append(views, challengeView(c))
		}
	}
	writeJSON(w, http.StatusOK, views)
}
