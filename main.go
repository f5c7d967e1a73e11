package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ecopoints/ecopoints/client"
	"github.com/ecopoints/ecopoints/cmd"
	"github.com/ecopoints/ecopoints/oauth"
	"github.com/ecopoints/ecopoints/server"
	"github.com/ecopoints/ecopoints/session"
)

func main() {
	// Load the .env file
	err := godotenv.Load()
	if err != nil {
		fmt.Println("No .env file found, using environment defaults")
	}

	// Read the environment variables
	apiURL := os.Getenv("ECOPOINTS_API_URL")
	signingKey := os.Getenv("JWT_SIGNING_KEY")
	mockAddr := os.Getenv("ECOPOINTS_MOCK_ADDR")
	redirectURL := os.Getenv("OAUTH_REDIRECT_URL")

	// Set default values if the environment variables are empty
	if apiURL == "" {
		apiURL = "http://localhost:3000/api"
	}
	if signingKey == "" {
		signingKey = "dev_signing_key"
	}
	if redirectURL == "" {
		redirectURL = "http://localhost:5173/auth/callback"
	}

	// Run the embedded dev backend when asked to.
	if os.Getenv("ECOPOINTS_MOCK") == "1" {
		if mockAddr == "" {
			mockAddr = "localhost:3000"
		}
		go server.Start(mockAddr, signingKey)
	}

	store := session.NewKeyringStore()
	api := client.New(apiURL, store)

	providers := map[string]*oauth.Provider{
		"github": oauth.GitHub(os.Getenv("GITHUB_CLIENT_ID"), os.Getenv("GITHUB_CLIENT_SECRET"), redirectURL),
		"google": oauth.Google(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), redirectURL),
	}

	cmd.Init(api, store, providers)
	cmd.Execute()
}
