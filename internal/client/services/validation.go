package services

import (
	"regexp"
	"unicode/utf8"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
)

const minPasswordLength = 6

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]{3,19}$`)
	emailRe    = regexp.MustCompile(`^[\w.-]+@[a-zA-Z\d.-]+\.[a-zA-Z]{2,}$`)

	upperRe  = regexp.MustCompile(`[A-Z]`)
	digitRe  = regexp.MustCompile(`\d`)
	symbolRe = regexp.MustCompile(`[^\w\s]`)
)

// ValidateRegistration checks username, email and password, in that order,
// and returns a *ValidationError for the first field that fails.
func ValidateRegistration(reg models.Registration) error {
	if !usernameRe.MatchString(reg.Username) {
		return &ValidationError{
			Field:   "username",
			Message: "username must be 4 to 20 characters, start with a letter and contain only latin letters and digits",
		}
	}
	if !emailRe.MatchString(reg.Email) {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if !validPassword(reg.Password) {
		return &ValidationError{
			Field:   "password",
			Message: "password must be at least 6 characters with one uppercase letter, one digit and one symbol",
		}
	}
	return nil
}

func validPassword(p string) bool {
	return utf8.RuneCountInString(p) >= minPasswordLength &&
		upperRe.MatchString(p) &&
		digitRe.MatchString(p) &&
		symbolRe.MatchString(p)
}
