package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateEmail reports whether the input looks like a deliverable address.
func ValidateEmail(email string) bool {
	const emailPattern = `^(?i)[a-z0-9._%+\-]+@(?:[a-z0-9\-]+\.)+[a-z]{2,}$`
	matched, err := regexp.MatchString(emailPattern, email)
	return err == nil && matched
}

// ValidatePassword requires at least 8 characters with both letters and numbers.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	containsLetter, _ := regexp.MatchString(`[a-zA-Z]`, password)
	containsNumber, _ := regexp.MatchString(`[0-9]`, password)
	return containsLetter && containsNumber
}

func PrintBanner(message string) {
	printBoxed(message, "+")
}

func PrintError(message string) {
	printBoxed("ERROR: "+message, "*")
}

func printBoxed(message, bannerChar string) {
	bannerLine := strings.Repeat(bannerChar, len(message)+4)

	fmt.Println(bannerLine)
	fmt.Printf("%s %s %s\n", bannerChar, message, bannerChar)
	fmt.Println(bannerLine)
	fmt.Println()
}
