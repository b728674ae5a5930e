// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// Password rules applied at sign-up.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is not valid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrPasswordWeak     = errors.New("password must contain a letter and a digit")
	ErrUnknownMethod    = errors.New("unknown auth method")
)

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a plaintext password with a stored hash.
func CheckPassword(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePassword enforces the sign-up password rules.
func ValidatePassword(plain string) error {
	switch {
	case plain == "":
		return ErrPasswordRequired
	case len([]rune(plain)) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(plain) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	var letter, digit bool
	for _, r := range plain {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return ErrPasswordWeak
	}
	return nil
}

// isValidEmail is a light shape check; deliverability is never verified.
func isValidEmail(s string) bool {
	if strings.ContainsAny(s, " \t<>") {
		return false
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') {
		return false
	}
	domain := s[at+1:]
	if !strings.Contains(domain, ".") {
		return false
	}
	return !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// CredentialInput is what a sign-up path supplies.
type CredentialInput struct {
	Method   string
	Email    string
	Password string
}

// Credentials are the normalized values to store on the user record.
type Credentials struct {
	Method       string
	Email        string
	PasswordHash *string
}

// ValidateAndResolve normalizes the email, checks method-specific rules, and
// hashes the password for the password method. Google users carry no hash.
func ValidateAndResolve(in CredentialInput) (Credentials, error) {
	method := normalize.AuthMethod(in.Method)
	email := normalize.Email(in.Email)

	if email == "" {
		return Credentials{}, ErrEmailRequired
	}
	if !isValidEmail(email) {
		return Credentials{}, ErrEmailInvalid
	}

	switch method {
	case models.AuthPassword:
		if err := ValidatePassword(in.Password); err != nil {
			return Credentials{}, err
		}
		hash, err := HashPassword(in.Password)
		if err != nil {
			return Credentials{}, fmt.Errorf("hash password: %w", err)
		}
		return Credentials{Method: method, Email: email, PasswordHash: &hash}, nil
	case models.AuthGoogle:
		return Credentials{Method: method, Email: email}, nil
	default:
		return Credentials{}, ErrUnknownMethod
	}
}
