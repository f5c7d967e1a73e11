package client

import (
	"errors"
	"net/http"

	"github.com/ecopoints/ecopoints/models"
)

var tokenAliases = []string{"token", "accessToken", "jwt", "authToken"}

// normalizeAuth extracts the token and user from an auth response body.
// The token may hide under several names; the user may be a wrapped
// sub-object or the body itself, depending on the backend iteration.
func normalizeAuth(body []byte) *models.AuthResponse {
	obj := unwrapObject(body)

	result := &models.AuthResponse{
		Token: pickString(obj, tokenAliases),
	}

	for _, key := range []string{"user", "profile", "account"} {
		if nested := pickObject(obj, key); nested != nil {
			result.User = canonicalUser(nested)
			break
		}
	}
	if result.User == nil {
		result.User = canonicalUser(obj)
	}

	return result
}

// persistAuth writes the session when the exchange yielded anything usable.
// Token and user are stored together; a missing token is tolerated for
// backends that run cookie sessions.
func (c *Client) persistAuth(auth *models.AuthResponse) error {
	if auth.Token == "" && auth.User == nil {
		return nil
	}
	return c.session.Set(auth.Token, auth.User)
}

// Login exchanges credentials for a session. The payload carries the
// identifier under both name and email, and the password under both
// password and passwordHash, to satisfy either backend convention. When
// the response holds neither token nor user (cookie-session backends),
// the profile fallback chain supplies the user record.
func (c *Client) Login(identifier, password string) (*models.AuthResponse, error) {
	payload := map[string]interface{}{
		"name":         identifier,
		"email":        identifier,
		"password":     password,
		"passwordHash": password,
	}

	body, err := c.do(http.MethodPost, "/auth/login", payload)
	if err != nil {
		return nil, err
	}

	auth := normalizeAuth(body)
	if err := c.persistAuth(auth); err != nil {
		return nil, err
	}

	if auth.Token == "" && auth.User == nil {
		user, err := c.UserProfile()
		if err != nil {
			return auth, nil
		}
		auth.User = user
		if err := c.session.Set("", user); err != nil {
			return nil, err
		}
	}

	return auth, nil
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(name, email, password string) (*models.AuthResponse, error) {
	payload := map[string]interface{}{
		"name":         name,
		"email":        email,
		"password":     password,
		"passwordHash": password,
	}

	body, err := c.do(http.MethodPost, "/auth/register", payload)
	if err != nil {
		return nil, err
	}

	auth := normalizeAuth(body)
	if err := c.persistAuth(auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// Logout tells the backend best-effort and clears the local session
// regardless of what the backend said.
func (c *Client) Logout() error {
	c.do(http.MethodPost, "/auth/logout", nil)
	return c.session.Clear()
}

// ExchangeOAuthCode trades an OAuth authorization code for an application
// session via the backend's generic provider endpoint.
func (c *Client) ExchangeOAuthCode(provider, code string) (*models.AuthResponse, error) {
	body, err := c.do(http.MethodPost, "/auth/oauth/"+provider, map[string]string{"code": code})
	if err != nil {
		return nil, err
	}

	auth := normalizeAuth(body)
	if auth.User != nil && auth.User.Provider == "" {
		auth.User.Provider = provider
	}
	if err := c.persistAuth(auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// UserProfile fetches the signed-in user's record, trying the profile
// endpoints different backend iterations expose, in fallback order:
// /user/profile, /auth/me, /auth/{id}, and finally the session cache.
func (c *Client) UserProfile() (*models.User, error) {
	paths := []string{"/user/profile", "/auth/me"}
	if id := c.currentUserID(); id != "" {
		paths = append(paths, "/auth/"+id)
	}

	for _, path := range paths {
		body, err := c.do(http.MethodGet, path, nil)
		if err != nil {
			continue
		}
		if user := canonicalUser(unwrapObject(body)); user != nil {
			return user, nil
		}
	}

	if user, err := c.session.User(); err == nil && user != nil {
		return user, nil
	}

	return nil, errors.New("unable to fetch user profile")
}

// AllUsers lists every account. Tolerates the HAL-style
// _embedded.userDtoList envelope alongside the usual wrappers.
func (c *Client) AllUsers() ([]models.User, error) {
	body, err := c.do(http.MethodGet, "/auth", nil)
	if err != nil {
		return nil, err
	}

	items := unwrapList(body)
	users := make([]models.User, 0, len(items))
	for _, item := range items {
		if user := canonicalUser(decodeItem(item)); user != nil {
			users = append(users, *user)
		}
	}
	return users, nil
}

// UserByID fetches one account.
func (c *Client) UserByID(id string) (*models.User, error) {
	body, err := c.do(http.MethodGet, "/auth/"+id, nil)
	if err != nil {
		return nil, err
	}
	user := canonicalUser(unwrapObject(body))
	if user == nil {
		return nil, errors.New("user not found in response")
	}
	return user, nil
}

// UpdateUser changes the account's name and/or email. Empty fields are
// left out of the payload.
func (c *Client) UpdateUser(id, name, email string) (*models.User, error) {
	payload := map[string]interface{}{}
	if name != "" {
		payload["name"] = name
	}
	if email != "" {
		payload["email"] = email
	}
	if len(payload) == 0 {
		return nil, errors.New("nothing to update")
	}

	body, err := c.do(http.MethodPut, "/auth/update/"+id, payload)
	if err != nil {
		return nil, err
	}

	user := canonicalUser(unwrapObject(body))
	if user != nil && id == c.currentUserID() {
		if token, err := c.session.Token(); err == nil {
			c.session.Set(token, user)
		}
	}
	return user, nil
}

// DeleteUser removes the account; if it was the signed-in one, the local
// session is cleared as well.
func (c *Client) DeleteUser(id string) error {
	if _, err := c.do(http.MethodDelete, "/auth/delete/"+id, nil); err != nil {
		return err
	}
	if id == c.currentUserID() {
		return c.session.Clear()
	}
	return nil
}
