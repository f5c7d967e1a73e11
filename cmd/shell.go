// Package cmd is the interactive shell surface of the EcoPoints client.
// Commands come in two sets, guest and signed-in, swapped on login and
// logout (or on a 401 intercepted by the transport).
package cmd

import (
	"fmt"
	"os"

	ishell "github.com/abiosoft/ishell"
	"github.com/common-nighthawk/go-figure"

	"github.com/ecopoints/ecopoints/client"
	"github.com/ecopoints/ecopoints/oauth"
	"github.com/ecopoints/ecopoints/session"
)

// guestCommands are available before sign-in.
var guestCommands []Command

// userCommands are available only to a signed-in user.
var userCommands []Command

// commonCommands are always available.
var commonCommands []Command

// loggedIn tracks whether a user is currently signed in.
var loggedIn bool

// shell is the interactive shell instance driving the application.
var shell *ishell.Shell

// api is the EcoPoints API client shared by all commands.
var api *client.Client

// store is the session store shared with the client.
var store session.Store

// providers holds the configured OAuth providers by name.
var providers map[string]*oauth.Provider

// Command defines one shell command: a name, a short description, and the
// function executed when it is invoked.
type Command struct {
	Name string
	Desc string
	Func func(c *ishell.Context)
}

// Init wires the shell against the API client and session store and builds
// the command sets. Must run before Execute.
func Init(apiClient *client.Client, sessionStore session.Store, oauthProviders map[string]*oauth.Provider) {
	shell = ishell.New()
	api = apiClient
	store = sessionStore
	providers = oauthProviders

	// A 401 anywhere drops the shell back to the guest command set; the
	// transport has already cleared the session.
	api.OnUnauthorized(func() {
		if loggedIn {
			fmt.Println("Session expired, please sign in again.")
			becomeGuest()
		}
	})

	initAuthCommands()
	initActivityCommands()
	initCommonCommands()
}

func initCommonCommands() {
	commonCommands = []Command{
		{
			Name: "exit",
			Desc: "Exit the application",
			Func: func(c *ishell.Context) {
				fmt.Println("Goodbye!")
				os.Exit(0)
			},
		},
	}

	// The help command is created separately to avoid the cyclic dependency.
	commonCommands = append(commonCommands, Command{
		Name: "help",
		Desc: "List available commands",
		Func: func(c *ishell.Context) {
			c.Println("Available commands:")
			if loggedIn {
				for _, command := range userCommands {
					c.Println("  |-- '" + command.Name + "' : " + command.Desc)
				}
			} else {
				for _, command := range guestCommands {
					c.Println("  |-- '" + command.Name + "' : " + command.Desc)
				}
			}
			for _, command := range commonCommands {
				c.Println("  |-- '" + command.Name + "' : " + command.Desc)
			}
			c.Println()
		},
	})
}

// becomeUser swaps the guest command set for the signed-in one.
func becomeUser() {
	loggedIn = true
	for _, command := range guestCommands {
		shell.DeleteCmd(command.Name)
	}
	addCommands(shell, userCommands)
}

// becomeGuest swaps the signed-in command set for the guest one.
func becomeGuest() {
	loggedIn = false
	for _, command := range userCommands {
		shell.DeleteCmd(command.Name)
	}
	addCommands(shell, guestCommands)
}

func addCommands(shell *ishell.Shell, commands []Command) {
	for _, command := range commands {
		shell.AddCmd(&ishell.Cmd{
			Name: command.Name,
			Help: "Command: " + command.Name,
			Func: command.Func,
		})
	}
}

// Execute welcomes the user and runs the shell. A session surviving from a
// previous run starts the shell signed in.
func Execute() {
	shell.Println()
	figure.NewFigure("EcoPoints", "basic", true).Print()
	shell.Println("Welcome to EcoPoints -- log eco-friendly activities, earn points, climb the leaderboard. Type 'help' to see a list of commands.")

	addCommands(shell, commonCommands)

	if user, err := store.User(); err == nil && user != nil {
		loggedIn = true
		shell.Println("Signed in as " + user.Name + ".")
		addCommands(shell, userCommands)
	} else {
		addCommands(shell, guestCommands)
	}

	shell.Run()
}
