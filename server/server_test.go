package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test_signing_key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Router(testSigningKey))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func loginDemo(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "demo@ecopoints.com",
		"password": "EcoDemo123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "login answers in a data envelope")
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterThenLogin(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name":     "Newcomer",
		"email":    "new@ecopoints.com",
		"password": "Greener123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Newcomer", body["name"], "register answers with the bare user")
	assert.NotEmpty(t, body["id"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email":    "new@ecopoints.com",
		"password": "Greener123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, loginBody := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "new@ecopoints.com",
		"password": "Greener123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := loginBody["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "demo@ecopoints.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["message"])
}

func TestProfileRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := loginDemo(t, srv)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Demo User", data["name"])
}

func TestListUsersHALEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/auth", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	embedded, ok := body["_embedded"].(map[string]interface{})
	require.True(t, ok)
	users, ok := embedded["userDtoList"].([]interface{})
	require.True(t, ok)
	require.Len(t, users, 2)
	first := users[0].(map[string]interface{})
	assert.Equal(t, "2", first["id"], "users sorted by id")
}

func TestActivityLogShape(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/activity-logs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs), "logs are a bare array")
	require.Len(t, logs, 3)

	first := logs[0]
	assert.NotEmpty(t, first["activityId"])
	assert.NotEmpty(t, first["occurredAt"])
	user := first["user"].(map[string]interface{})
	assert.Equal(t, "Demo User", user["name"])
	activityType := first["activityType"].(map[string]interface{})
	assert.Equal(t, "Cycle to work", activityType["name"])
}

func TestCreateActivityTypeRequiresCO2(t *testing.T) {
	srv := newTestServer(t)
	token := loginDemo(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/activities", token, map[string]interface{}{
		"name":   "Compost",
		"points": 5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "co2g_saved must not be null", body["message"])

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/activities", token, map[string]interface{}{
		"name":       "Compost",
		"points":     5,
		"co2g_saved": 0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 0.0, created["co2gSaved"])
}

func TestCreateActivityLogValidatesType(t *testing.T) {
	srv := newTestServer(t)
	token := loginDemo(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/activity-logs", token, map[string]string{
		"userId":         "2",
		"activityTypeId": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown activity type", body["message"])

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/activity-logs", token, map[string]string{
		"userId":         "2",
		"activityTypeId": "t2",
		"occurredAt":     "2026-08-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "2026-08-20T10:00:00Z", created["occurredAt"])
}

func TestLeaderboardOrdering(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries, ok := body["data"].([]interface{})
	require.True(t, ok, "leaderboard answers in a data envelope")
	require.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	second := entries[1].(map[string]interface{})
	// Demo user: cycling 20 + recycling 10 = 30; neighbor: meatless 15.
	assert.Equal(t, "2", first["userId"])
	assert.Equal(t, 30.0, first["totalPoints"])
	assert.Equal(t, 1.0, first["rank"])
	assert.Equal(t, "3", second["userId"])
	assert.Equal(t, 2.0, second["rank"])
}

func TestUserChallengesFiltered(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/challenges/user/2", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var challenges []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&challenges))
	require.Len(t, challenges, 1)
	assert.Equal(t, "10K Steps a Day", challenges[0]["name"])
	assert.Equal(t, 1.0, challenges[0]["challengeID"])
}

func TestStatsEndpointAbsent(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/user/stats", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", body["message"])
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestOAuthExchangeRequiresCode(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/oauth/github", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing code", body["message"])

	resp, exchanged := doJSON(t, http.MethodPost, srv.URL+"/api/auth/oauth/github", "", map[string]string{"code": "anything"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, exchanged["token"])
	user := exchanged["user"].(map[string]interface{})
	assert.Equal(t, "github", user["provider"])
}
