package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	ishell "github.com/abiosoft/ishell"

	"github.com/ecopoints/ecopoints/lib/utils"
)

func initAuthCommands() {
	guestCommands = []Command{
		{
			Name: "signin",
			Desc: "Sign in to your account",
			Func: func(c *ishell.Context) {
				var identifier, password string
				for {
					c.Print("Enter Email or Username: ")
					identifier = c.ReadLine()

					if len(identifier) > 1 {
						break
					}
					c.Println("Email or username must be longer than 1 character.")
				}

				for {
					c.Print("Enter Password: ")
					password = c.ReadPassword()

					if len(password) > 0 {
						break
					}
					c.Println("Password cannot be empty.")
				}

				auth, err := api.Login(identifier, password)
				if err != nil {
					utils.PrintError(err.Error())
					return
				}
				if auth.User != nil {
					c.Println("Welcome " + auth.User.Name + ", you are now signed in.")
				} else {
					c.Println("Welcome, you are now signed in.")
				}
				becomeUser()
			},
		},
		{
			Name: "signup",
			Desc: "Sign up for a new account",
			Func: func(c *ishell.Context) {
				var name, email, password string
				for {
					c.Print("Enter Name: ")
					name = c.ReadLine()

					if len(name) > 1 {
						break
					}
					c.Println("Name must be longer than 1 character.")
				}

				for {
					c.Print("Enter Email: ")
					email = c.ReadLine()

					if utils.ValidateEmail(email) {
						break
					}
					c.Println("Email is not valid.")
				}

				for {
					c.Print("Enter Password: ")
					password = c.ReadPassword()

					if utils.ValidatePassword(password) {
						c.Print("Confirm Password: ")
						confirmPassword := c.ReadPassword()

						if password == confirmPassword {
							break
						}
						c.Println()
						c.Println("Passwords do not match. Please try again.")
						c.Println()
					} else {
						c.Println()
						c.Println("Password must be at least 8 characters and contain both letters and numbers.")
						c.Println()
					}
				}

				_, err := api.SignUp(name, email, password)
				if err != nil {
					utils.PrintError(err.Error())
					return
				}
				c.Println("Account created successfully. You are now signed in.")
				becomeUser()
			},
		},
		{
			Name: "github",
			Desc: "Sign in with GitHub",
			Func: func(c *ishell.Context) {
				oauthSignIn(c, "github")
			},
		},
		{
			Name: "google",
			Desc: "Sign in with Google",
			Func: func(c *ishell.Context) {
				oauthSignIn(c, "google")
			},
		},
	}

	userCommands = []Command{
		{
			Name: "profile",
			Desc: "Show your account",
			Func: func(c *ishell.Context) {
				user, err := api.UserProfile()
				if err != nil {
					utils.PrintError(err.Error())
					return
				}
				c.Println("Name:  " + user.Name)
				c.Println("Email: " + user.Email)
				if user.Provider != "" {
					c.Println("Signed in via " + user.Provider)
				}
			},
		},
		{
			Name: "updatemyacc",
			Desc: "Update your account information",
			Func: func(c *ishell.Context) {
				user, err := store.User()
				if err != nil || user == nil {
					utils.PrintError("no user is currently signed in")
					return
				}

				var newName, newEmail string
				if askYesNo(c, "Do you want to update your name?") {
					for {
						c.Print("Enter New Name: ")
						newName = c.ReadLine()

						if len(newName) > 1 {
							break
						}
						c.Println("New name must be longer than 1 character.")
					}
				}

				if askYesNo(c, "Do you want to update your email?") {
					for {
						c.Print("Enter New Email: ")
						newEmail = c.ReadLine()

						if utils.ValidateEmail(newEmail) {
							break
						}
						c.Println("New email is not valid.")
					}
				}

				if _, err := api.UpdateUser(user.ID, newName, newEmail); err != nil {
					utils.PrintError(err.Error())
					return
				}
				c.Println("Account updated successfully.")
			},
		},
		{
			Name: "signout",
			Desc: "Sign out from your account",
			Func: func(c *ishell.Context) {
				if err := api.Logout(); err != nil {
					utils.PrintError(err.Error())
					return
				}
				c.Println("You are now signed out.")
				becomeGuest()
			},
		},
		{
			Name: "deletemyacc",
			Desc: "Delete your account",
			Func: func(c *ishell.Context) {
				if !askYesNo(c, "Are you sure you want to delete your account?") {
					return
				}
				user, err := store.User()
				if err != nil || user == nil {
					utils.PrintError("no user is currently signed in")
					return
				}
				if err := api.DeleteUser(user.ID); err != nil {
					utils.PrintError(err.Error())
					return
				}
				c.Println("Account deleted successfully.")
				becomeGuest()
			},
		},
	}
}

func askYesNo(c *ishell.Context, question string) bool {
	for {
		c.Print(question + " (yes/no): ")
		response := strings.ToLower(c.ReadLine())
		if response == "yes" {
			return true
		}
		if response == "no" {
			return false
		}
		c.Println("Invalid response. Please type 'yes' or 'no'.")
	}
}

// oauthSignIn walks the browser-free code flow: print the authorization
// URL, have the user paste the code back, exchange it against the backend,
// and fall back to a provider-local exchange when the backend has no OAuth
// endpoint.
func oauthSignIn(c *ishell.Context, providerName string) {
	provider, ok := providers[providerName]
	if !ok || !provider.Configured() {
		utils.PrintError(providerName + " sign-in is not configured; set the client id and secret in the environment")
		return
	}

	state := randomState()
	c.Println("Open this URL in your browser and authorize EcoPoints:")
	c.Println()
	c.Println("  " + provider.AuthURL(state))
	c.Println()
	c.Print("Paste the authorization code here: ")
	code := strings.TrimSpace(c.ReadLine())
	if code == "" {
		utils.PrintError("no authorization code entered")
		return
	}

	auth, err := api.ExchangeOAuthCode(providerName, code)
	if err == nil {
		name := providerName
		if auth.User != nil {
			name = auth.User.Name
		}
		c.Println("Welcome " + name + ", you are now signed in.")
		becomeUser()
		return
	}

	// No backend OAuth endpoint: exchange locally through the provider and
	// keep its access token as the opaque session token. Google tokens
	// resolve the user from the bundled ID token, others fetch the profile.
	token, exchErr := provider.Exchange(context.Background(), code)
	if exchErr != nil {
		utils.PrintError(err.Error())
		return
	}
	user, exchErr := provider.UserFromToken(context.Background(), token)
	if exchErr != nil {
		utils.PrintError(exchErr.Error())
		return
	}
	if err := store.Set(token.AccessToken, user); err != nil {
		utils.PrintError(err.Error())
		return
	}
	c.Println("Welcome " + user.Name + ", you are now signed in.")
	becomeUser()
}

func randomState() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
