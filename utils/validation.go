// utils/validation.go
package utils

import (
	"regexp"
	"strings"
	"time"
)

const (
	MinMemberAge = 1
	MaxMemberAge = 120
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

// NormalizePhone strips the separators people type into phone numbers.
// This is the form that gets persisted and handed to the messaging
// provider, so duplicate checks and sends always see the same string.
func NormalizePhone(phone string) string {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Optional + prefix, first digit non-zero, up to 16 digits total
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// ValidateAge checks the allowed member age range
func ValidateAge(age int) bool {
	return age >= MinMemberAge && age <= MaxMemberAge
}

// ValidateSubscriptionPeriod requires the subscription end to fall strictly
// after the join date.
func ValidateSubscriptionPeriod(joinDate, subscriptionEndDate time.Time) bool {
	return subscriptionEndDate.After(joinDate)
}
