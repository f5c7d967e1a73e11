package client

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityTypeByID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities/t1", r.URL.Path)
		w.Write([]byte(`{"data":{"id":"t1","name":"Cycle to work","points":20,"category":"Transportation","co2gSaved":1500}}`))
	}))

	activityType, err := c.ActivityTypeByID("t1")
	require.NoError(t, err)
	assert.Equal(t, "Cycle to work", activityType.Name)
	assert.Equal(t, 1500.0, activityType.CO2gSaved)
}

func TestActivityTypeByIDEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	_, err := c.ActivityTypeByID("t1")
	require.Error(t, err)
	assert.EqualError(t, err, "activity type not found in response")
}

// Updates carry the same always-present co2 payload as creates.
func TestUpdateActivityTypePayload(t *testing.T) {
	var captured map[string]interface{}
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/activities/t1", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"id":"t1","name":"Cycle everywhere","points":25,"co2gSaved":0}`))
	}))
	signIn(t, store, "u1")

	updated, err := c.UpdateActivityType("t1", ActivityTypeInput{Name: "Cycle everywhere", Points: 25})
	require.NoError(t, err)
	assert.Equal(t, "Cycle everywhere", updated.Name)

	co2, present := captured["co2gSaved"]
	require.True(t, present, "co2gSaved must be sent even when the caller omitted it")
	assert.Equal(t, 0.0, co2)
	assert.Equal(t, 0.0, captured["co2g_saved"])

	assert.False(t, store.HasCreatedActivityType(), "updating never records the creation milestone")
}

func TestDeleteActivityType(t *testing.T) {
	var gotMethod, gotPath string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	signIn(t, store, "u1")

	require.NoError(t, c.DeleteActivityType("t1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/activities/t1", gotPath)
}

func TestDeleteActivityTypeNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"activity type not found"}`))
	}))

	err := c.DeleteActivityType("nope")
	require.Error(t, err)
	assert.EqualError(t, err, "activity type not found")
}

func TestDeleteActivityLog(t *testing.T) {
	var gotMethod, gotPath string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	signIn(t, store, "u1")

	require.NoError(t, c.DeleteActivityLog("l1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/activity-logs/l1", gotPath)
}
