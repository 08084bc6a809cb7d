package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateEmail performs a light structural check on an email address.
// Full RFC validation is left to the mail provider; this catches the
// obviously broken input before it reaches the database.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email format")
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.Contains(email, " ") {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// UsernameFromEmail derives the account username from the local part of
// the email address, lowercased.
func UsernameFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return strings.ToLower(email)
	}
	return strings.ToLower(email[:at])
}

// ValidateTimeOfDay checks an "HH:MM" time-of-day string at minute
// granularity and returns its normalized zero-padded form.
func ValidateTimeOfDay(value string) (string, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format: expected HH:MM, got %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", value)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
