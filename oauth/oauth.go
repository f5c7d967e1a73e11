// Package oauth handles Google and GitHub sign-in. The authorization-code
// and token exchange protocol is delegated entirely to golang.org/x/oauth2;
// this package only builds provider configurations and normalizes the
// provider's profile payload onto the canonical User.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/form3tech-oss/jwt-go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/ecopoints/ecopoints/models"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
	googleUserURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// Provider is one configured OAuth identity provider.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

// GitHub returns a provider for GitHub sign-in.
func GitHub(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: "github",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		UserInfoURL: githubUserURL,
	}
}

// Google returns a provider for Google sign-in.
func Google(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: googleUserURL,
	}
}

// Configured reports whether the provider has credentials set.
func (p *Provider) Configured() bool {
	return p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// AuthURL returns the URL the user visits in a browser to authorize.
func (p *Provider) AuthURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the pasted authorization code for an access token.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.Config.Exchange(ctx, code)
}

// UserFromToken resolves the canonical user for a freshly exchanged token.
// Google tokens carry an ID token whose claims already hold the profile;
// when one is present it is decoded locally instead of spending a userinfo
// round trip. Everything else goes through the provider profile fetch.
func (p *Provider) UserFromToken(ctx context.Context, token *oauth2.Token) (*models.User, error) {
	if p.Name == "google" {
		if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
			if user, err := DecodeGoogleIDToken(idToken); err == nil {
				return user, nil
			}
		}
	}
	return p.FetchUser(ctx, token)
}

// FetchUser retrieves the provider profile with the exchanged token and
// normalizes it onto the canonical User.
func (p *Provider) FetchUser(ctx context.Context, token *oauth2.Token) (*models.User, error) {
	httpClient := p.Config.Client(ctx, token)

	profile, err := getJSON(httpClient, p.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s profile: %v", p.Name, err)
	}

	switch p.Name {
	case "github":
		return normalizeGitHubUser(httpClient, profile), nil
	default:
		return normalizeGoogleUser(profile), nil
	}
}

func getJSON(httpClient *http.Client, url string) (map[string]interface{}, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func normalizeGitHubUser(httpClient *http.Client, profile map[string]interface{}) *models.User {
	login, _ := profile["login"].(string)
	name, _ := profile["name"].(string)
	if name == "" {
		name = login
	}
	email, _ := profile["email"].(string)
	if email == "" {
		email = githubPrimaryEmail(httpClient)
	}
	if email == "" && login != "" {
		email = login + "@users.noreply.github.com"
	}
	avatar, _ := profile["avatar_url"].(string)

	var id string
	if v, ok := profile["id"].(float64); ok {
		id = fmt.Sprintf("%.0f", v)
	}

	return &models.User{
		ID:       id,
		Name:     name,
		Email:    email,
		Avatar:   avatar,
		Provider: "github",
	}
}

// githubPrimaryEmail looks up the primary verified address; best-effort,
// returns "" on any failure.
func githubPrimaryEmail(httpClient *http.Client) string {
	resp, err := httpClient.Get(githubEmailsURL)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return ""
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return ""
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}

func normalizeGoogleUser(profile map[string]interface{}) *models.User {
	id, _ := profile["sub"].(string)
	name, _ := profile["name"].(string)
	email, _ := profile["email"].(string)
	avatar, _ := profile["picture"].(string)
	return &models.User{
		ID:       id,
		Name:     name,
		Email:    email,
		Avatar:   avatar,
		Provider: "google",
	}
}

// DecodeGoogleIDToken extracts the user claims from a Google ID token
// without verifying its signature. Used only to build the local user
// record when the backend accepted the token but returned no profile;
// it must never be used to grant access.
func DecodeGoogleIDToken(idToken string) (*models.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(idToken, claims); err != nil {
		return nil, err
	}

	user := normalizeGoogleUser(map[string]interface{}(claims))
	if user.ID == "" && user.Email == "" {
		return nil, errors.New("token carries no usable identity claims")
	}
	return user, nil
}
