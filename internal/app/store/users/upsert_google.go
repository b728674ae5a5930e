// internal/app/store/users/upsert_google.go
package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
)

// ErrRoleRequired is returned when a first Google sign-in does not say which
// role the new account should have.
var ErrRoleRequired = errors.New("role is required for a new account")

// UpsertGoogle returns the user with the given email, creating a Google
// account with role when none exists. created reports whether a record was
// inserted. An existing account keeps its role and auth method.
func (s *Store) UpsertGoogle(ctx context.Context, email, fullName, role string) (u *models.User, created bool, err error) {
	email = normalize.Email(email)
	existing, err := s.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return nil, false, ErrRoleRequired
	}
	if normalize.Name(fullName) == "" {
		fullName = email
	}

	nu, err := s.Create(ctx, models.User{
		FullName:   fullName,
		Email:      email,
		Role:       role,
		AuthMethod: models.AuthGoogle,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost a race with a concurrent first sign-in.
		existing, err = s.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &nu, true, nil
}
