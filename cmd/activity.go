package cmd

import (
	"fmt"
	"strconv"
	"strings"

	ishell "github.com/abiosoft/ishell"

	"github.com/ecopoints/ecopoints/client"
	"github.com/ecopoints/ecopoints/lib/utils"
	"github.com/ecopoints/ecopoints/models"
)

func initActivityCommands() {
	userCommands = append(userCommands,
		Command{
			Name: "dashboard",
			Desc: "Show your points, streak, and weekly progress",
			Func: cmdDashboard,
		},
		Command{
			Name: "log",
			Desc: "Log an eco-friendly activity",
			Func: cmdLogActivity,
		},
		Command{
			Name: "history",
			Desc: "Show your recent activity logs",
			Func: cmdHistory,
		},
		Command{
			Name: "activities",
			Desc: "List the activity catalogue",
			Func: cmdActivities,
		},
		Command{
			Name: "newactivity",
			Desc: "Create a custom activity type",
			Func: cmdNewActivity,
		},
		Command{
			Name: "leaderboard",
			Desc: "Show the leaderboard",
			Func: cmdLeaderboard,
		},
		Command{
			Name: "challenges",
			Desc: "Show your challenges and milestones",
			Func: cmdChallenges,
		},
	)
}

func cmdDashboard(c *ishell.Context) {
	stats, err := api.UserStats()
	if err != nil {
		utils.PrintError(err.Error())
		return
	}

	utils.PrintBanner("Your EcoPoints Dashboard")
	c.Printf("Total points:   %d\n", stats.TotalPoints)
	c.Printf("This week:      %d\n", stats.WeeklyPoints)
	c.Printf("This month:     %d\n", stats.MonthlyPoints)
	if stats.CurrentStreak > 0 {
		c.Printf("Current streak: %d days\n", stats.CurrentStreak)
	}
	if stats.Rank > 0 {
		c.Printf("Rank:           #%d\n", stats.Rank)
	}

	c.Println()
	c.Println("Weekly progress:")
	for _, day := range stats.WeeklyProgress {
		bar := strings.Repeat("#", barLength(day.Points))
		c.Printf("  %s %4d %s\n", day.Day, day.Points, bar)
	}

	if len(stats.RecentActivities) > 0 {
		c.Println()
		c.Println("Recent activities:")
		for _, log := range stats.RecentActivities {
			c.Println("  " + describeLog(log))
		}
	}
}

// barLength scales points to a console bar, capped so one big day cannot
// blow out the layout.
func barLength(points int) int {
	length := points / 5
	if length > 40 {
		length = 40
	}
	return length
}

func describeLog(log models.ActivityLog) string {
	name := log.Description
	if log.ActivityType != nil && log.ActivityType.Name != "" {
		name = log.ActivityType.Name
	}
	if name == "" {
		name = string(log.Category)
	}
	when := ""
	if !log.CreatedAt.IsZero() {
		when = " on " + log.CreatedAt.Format("Jan 2")
	}
	return fmt.Sprintf("%s (+%d pts)%s", name, log.Points, when)
}

func cmdLogActivity(c *ishell.Context) {
	types, err := api.ActivityTypes()
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	if len(types) == 0 {
		c.Println("No activity types available yet. Create one with 'newactivity'.")
		return
	}

	c.Println("Pick an activity:")
	for i, t := range types {
		c.Printf("  %d) %s (+%d pts, %s)\n", i+1, t.Name, t.Points, t.Category)
	}

	var choice int
	for {
		c.Print("Enter number: ")
		n, err := strconv.Atoi(strings.TrimSpace(c.ReadLine()))
		if err == nil && n >= 1 && n <= len(types) {
			choice = n - 1
			break
		}
		c.Println("Please enter a number from the list.")
	}

	c.Print("Description (optional): ")
	description := c.ReadLine()

	user, err := store.User()
	if err != nil || user == nil {
		utils.PrintError("no user is currently signed in")
		return
	}

	log, err := api.CreateActivityLog(user.ID, types[choice].ID, description)
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	c.Printf("Logged '%s' for +%d points.\n", types[choice].Name, log.Points)
}

func cmdHistory(c *ishell.Context) {
	user, err := store.User()
	if err != nil || user == nil {
		utils.PrintError("no user is currently signed in")
		return
	}

	logs, err := api.ActivityLogsByUser(user.ID)
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	if len(logs) == 0 {
		c.Println("No activities logged yet. Use 'log' to record your first one.")
		return
	}
	for _, log := range logs {
		c.Println("  " + describeLog(log))
	}
}

func cmdActivities(c *ishell.Context) {
	types, err := api.ActivityTypes()
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	if len(types) == 0 {
		c.Println("The activity catalogue is empty.")
		return
	}
	for _, t := range types {
		c.Printf("  %-24s +%d pts  %-14s saves %.0fg CO2\n", t.Name, t.Points, t.Category, t.CO2gSaved)
	}
}

func cmdNewActivity(c *ishell.Context) {
	var name string
	for {
		c.Print("Name: ")
		name = c.ReadLine()
		if len(name) > 1 {
			break
		}
		c.Println("Name must be longer than 1 character.")
	}

	c.Print("Description: ")
	description := c.ReadLine()

	var points int
	for {
		c.Print("Points: ")
		n, err := strconv.Atoi(strings.TrimSpace(c.ReadLine()))
		if err == nil && n >= 0 {
			points = n
			break
		}
		c.Println("Points must be a non-negative number.")
	}

	c.Printf("Category %v: ", categoryNames())
	category := models.ActivityCategory(strings.TrimSpace(c.ReadLine()))

	input := client.ActivityTypeInput{
		Name:        name,
		Description: description,
		Points:      points,
		Category:    category,
	}

	c.Print("Grams of CO2 saved (blank for 0): ")
	if raw := strings.TrimSpace(c.ReadLine()); raw != "" {
		if co2, err := strconv.ParseFloat(raw, 64); err == nil && co2 >= 0 {
			input.CO2gSaved = &co2
		}
	}

	created, err := api.CreateActivityType(input)
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	c.Printf("Created activity '%s'.\n", created.Name)
}

func categoryNames() []string {
	return []string{
		string(models.CategoryTransportation),
		string(models.CategoryRecycling),
		string(models.CategoryEnergy),
		string(models.CategoryWater),
		string(models.CategoryFood),
		string(models.CategoryOther),
	}
}

func cmdLeaderboard(c *ishell.Context) {
	entries, err := api.Leaderboard()
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	if len(entries) == 0 {
		c.Println("The leaderboard is empty. Log some activities!")
		return
	}

	utils.PrintBanner("Leaderboard")
	for _, entry := range entries {
		c.Printf("  #%-3d %-24s %6d pts  %.0fg CO2 saved\n",
			entry.Rank, entry.Name, entry.TotalPoints, entry.TotalCO2Saved)
	}
}

func cmdChallenges(c *ishell.Context) {
	challenges, err := api.Challenges()
	if err != nil {
		utils.PrintError(err.Error())
		return
	}
	if len(challenges) == 0 {
		c.Println("No challenges right now. Check back later.")
		return
	}

	for _, challenge := range challenges {
		marker := " "
		if challenge.Status == models.ChallengeCompleted {
			marker = "x"
		}
		c.Printf("  [%s] %-24s %d/%d  +%d pts  %s\n",
			marker, challenge.Title, challenge.Progress, challenge.Target, challenge.Points, challenge.Description)
	}
}
