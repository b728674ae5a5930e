package authutil

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse 1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse 1" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword("correct horse 1", hash) {
		t.Error("expected matching password to check")
	}
	if CheckPassword("wrong horse 1", hash) {
		t.Error("expected wrong password to fail")
	}
	if CheckPassword("anything", "") {
		t.Error("expected empty hash to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrPasswordRequired},
		{"short", "ab1", ErrPasswordTooShort},
		{"long", strings.Repeat("a1", 40), ErrPasswordTooLong},
		{"letters only", "abcdefghij", ErrPasswordWeak},
		{"digits only", "1234567890", ErrPasswordWeak},
		{"ok", "mentor2024", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.in)
			if !errors.Is(got, tt.want) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"test@example.com", true},
		{"name.surname@company.co.uk", true},
		{"a@b.co", true},
		{"userexample.com", false},
		{"a@b@example.com", false},
		{"@example.com", false},
		{"user@localhost", false},
		{"user@example.", false},
		{"user@.example.com", false},
		{"User <user@example.com>", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := isValidEmail(tt.email); got != tt.want {
				t.Errorf("isValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidateAndResolve_PasswordMethod_Valid(t *testing.T) {
	res, err := ValidateAndResolve(CredentialInput{
		Method:   "Password",
		Email:    "  Asha@Example.COM ",
		Password: "mentor2024",
	})
	if err != nil {
		t.Fatalf("ValidateAndResolve failed: %v", err)
	}
	if res.Email != "asha@example.com" {
		t.Errorf("Email = %q, want normalized", res.Email)
	}
	if res.Method != "password" {
		t.Errorf("Method = %q, want password", res.Method)
	}
	if res.PasswordHash == nil || !CheckPassword("mentor2024", *res.PasswordHash) {
		t.Error("expected a usable PasswordHash")
	}
}

func TestValidateAndResolve_PasswordMethod_WeakPassword(t *testing.T) {
	_, err := ValidateAndResolve(CredentialInput{Method: "password", Email: "a@b.co", Password: "short"})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestValidateAndResolve_GoogleMethod_NoHash(t *testing.T) {
	res, err := ValidateAndResolve(CredentialInput{Method: "google", Email: "a@b.co"})
	if err != nil {
		t.Fatalf("ValidateAndResolve failed: %v", err)
	}
	if res.PasswordHash != nil {
		t.Error("expected no PasswordHash for google sign-up")
	}
}

func TestValidateAndResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   CredentialInput
		want error
	}{
		{"missing email", CredentialInput{Method: "password", Password: "mentor2024"}, ErrEmailRequired},
		{"bad email", CredentialInput{Method: "password", Email: "nope", Password: "mentor2024"}, ErrEmailInvalid},
		{"unknown method", CredentialInput{Method: "clever", Email: "a@b.co"}, ErrUnknownMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndResolve(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
