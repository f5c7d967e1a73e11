// Package session holds the client's only durable local state: the auth
// token, the cached canonical user, and a small milestone flag. It is an
// explicit, injected object rather than ambient global storage, so the
// transport and the command layer share one view of who is signed in.
package session

import (
	"encoding/json"
	"errors"

	"github.com/ecopoints/ecopoints/models"
	"github.com/zalando/go-keyring"
)

// Store is the narrow session-state interface consumed by the API client.
// Token and user are written together on a successful login/signup/OAuth
// exchange and erased together on logout or a 401, never partially.
type Store interface {
	// Token returns the stored auth token, or "" when no user is signed in.
	Token() (string, error)
	// User returns the cached canonical user, or nil when none is stored.
	User() (*models.User, error)
	// Set persists the token and user together.
	Set(token string, user *models.User) error
	// Clear erases the token and user together.
	Clear() error
	// HasCreatedActivityType reports whether this user ever created a
	// custom activity type on this machine. Drives a milestone challenge.
	HasCreatedActivityType() bool
	// MarkActivityTypeCreated records the flag; it is never unset by the
	// client except through Clear.
	MarkActivityTypeCreated() error
}

// KeyringService is the service name under which session entries are stored
// in the system keyring.
const KeyringService = "EcoPoints"

const (
	tokenKey       = "authToken"
	userKey        = "user"
	createdTypeKey = "createdActivityType"
)

// KeyringStore keeps the session in the operating system keyring.
type KeyringStore struct{}

// NewKeyringStore returns a Store backed by the system keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Token() (string, error) {
	token, err := keyring.Get(KeyringService, tokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", nil
		}
		return "", errors.New("failed to access keyring: " + err.Error())
	}
	return token, nil
}

func (s *KeyringStore) User() (*models.User, error) {
	raw, err := keyring.Get(KeyringService, userKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, errors.New("failed to access keyring: " + err.Error())
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, errors.New("stored user is corrupt: " + err.Error())
	}
	return &user, nil
}

func (s *KeyringStore) Set(token string, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := keyring.Set(KeyringService, tokenKey, token); err != nil {
		return err
	}
	if err := keyring.Set(KeyringService, userKey, string(raw)); err != nil {
		// Roll the token back so the session is never half-written.
		keyring.Delete(KeyringService, tokenKey)
		return err
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	token, getErr := keyring.Get(KeyringService, tokenKey)

	if err := keyring.Delete(KeyringService, tokenKey); err != nil && err != keyring.ErrNotFound {
		return errors.New("failed to delete auth token from keyring: " + err.Error())
	}

	if err := keyring.Delete(KeyringService, userKey); err != nil && err != keyring.ErrNotFound {
		// Restore the token so the pair stays consistent.
		if getErr == nil {
			keyring.Set(KeyringService, tokenKey, token)
		}
		return errors.New("failed to delete user from keyring: " + err.Error())
	}

	keyring.Delete(KeyringService, createdTypeKey)
	return nil
}

func (s *KeyringStore) HasCreatedActivityType() bool {
	val, err := keyring.Get(KeyringService, createdTypeKey)
	return err == nil && val == "1"
}

func (s *KeyringStore) MarkActivityTypeCreated() error {
	return keyring.Set(KeyringService, createdTypeKey, "1")
}
