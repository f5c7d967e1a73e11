// Package client is the EcoPoints API client. It issues HTTP requests
// against a configurable base URL, attaches the stored auth token to every
// request, and maps the backend's heterogeneous response shapes onto the
// canonical models. When a dedicated endpoint is unavailable it synthesizes
// an equivalent result from activity logs instead.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ecopoints/ecopoints/session"
)

// genericErrorMessage is used when the server gives no structured error body.
const genericErrorMessage = "an unexpected error occurred"

// APIError is a classified non-2xx response. Message carries the server's
// `message` (or `error`) body field when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unavailable reports whether the error marks an endpoint the backend has
// not (yet) implemented, which is the trigger for client-side synthesis.
func (e *APIError) Unavailable() bool {
	return e.Status == http.StatusNotFound || e.Status == http.StatusInternalServerError
}

// Unauthorized reports whether the error was an authorization failure.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Client talks to the EcoPoints backend. It owns no durable state beyond
// the injected session store; requests are independent and never retried.
type Client struct {
	baseURL string
	http    *http.Client
	session session.Store

	// onUnauthorized runs after a 401 has cleared the session; the command
	// layer uses it to drop back to the guest command set.
	onUnauthorized func()

	// now is swapped in tests that pin the stats windows.
	now func() time.Time
}

// New returns a Client for the API at baseURL, reading and writing the
// signed-in session through store.
func New(baseURL string, store session.Store) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		session: store,
		now:     time.Now,
	}
}

// OnUnauthorized registers a hook invoked whenever a request comes back 401.
// The session has already been cleared by the time the hook runs.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// currentUserID returns the signed-in user's id, or "" when nobody is.
func (c *Client) currentUserID() string {
	user, err := c.session.User()
	if err != nil || user == nil {
		return ""
	}
	return user.ID
}

// do sends one request and returns the raw response body. The stored auth
// token, when present, is attached as a bearer header; its absence is
// tolerated and the request goes out unauthenticated. A 401 clears the
// session and fires the unauthorized hook before the error is returned.
func (c *Client) do(method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token, err := c.session.Token(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
}

// errorMessage extracts the server-provided message from a structured error
// body, falling back to a fixed generic message.
func errorMessage(body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg, ok := parsed["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := parsed["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return genericErrorMessage
}

// unavailable reports whether err is a classified 404/500, the condition
// under which a synthesis fallback may run. Authorization and validation
// errors never qualify and must propagate unchanged.
func unavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unavailable()
}

// notFound reports whether err is a classified 404.
func notFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
