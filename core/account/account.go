// Package account holds the rules shared by student and teacher accounts.
//
// Passwords are stored and compared in plaintext, and default to the mobile number,
// so that "reset to mobile" keeps working for existing accounts.
package account

import (
	"strings"
	"unicode/utf8"
)

// Statuses
const (
	StatusActive    = "Active"
	StatusSuspended = "Suspended"
)

var Statuses = []string{StatusActive, StatusSuspended}

const customIDPartLen = 3

// CustomID derives the display id of an account: the first 3 characters of name, upper-cased,
// followed by the first 3 characters of mobile. Shorter inputs contribute what they have.
// Custom ids are not unique.
func CustomID(name, mobile string) string {
	return strings.ToUpper(prefix(name, customIDPartLen)) + prefix(mobile, customIDPartLen)
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// DefaultPassword is the password of new accounts and of resets without an explicit value.
func DefaultPassword(mobile string) string {
	return mobile
}

// CheckSecret tells whether submitted unlocks an account, which accepts its password or its mobile number.
func CheckSecret(password, mobile, submitted string) bool {
	if submitted == "" {
		return false
	}
	return submitted == password || submitted == mobile
}

func IsActive(status string) bool {
	return status == StatusActive
}
