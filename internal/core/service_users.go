package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"housingcore/internal/pkg/password"
	"housingcore/pkg/domain"
)

var nricPattern = regexp.MustCompile(`^[ST]\d{7}[A-Z]$`)

// ValidNRIC reports whether nric has the S/T + seven digits + letter shape.
func ValidNRIC(nric string) bool {
	return nricPattern.MatchString(nric)
}

// Authenticate returns the user identified by nric when password matches.
func (s *Service) Authenticate(ctx context.Context, nric, pass string) (User, error) {
	nric = strings.ToUpper(strings.TrimSpace(nric))
	if !ValidNRIC(nric) {
		return User{}, domain.NewValidation("invalid NRIC format")
	}
	var user User
	err := s.read(ctx, "authenticate", func(view TransactionView) error {
		u, ok := view.FindUser(nric)
		if !ok || !password.Verify(pass, u.Password) {
			return domain.NewPermissionDenied("invalid NRIC or password")
		}
		user = u
		return nil
	})
	return user, err
}

// ChangePassword replaces the actor's password with a bcrypt hash of next.
// Legacy plaintext passwords are upgraded on the first change.
func (s *Service) ChangePassword(ctx context.Context, actor User, current, next string) (User, Result, error) {
	if !password.ValidatePassword(next) {
		return User{}, Result{}, domain.NewValidation(fmt.Sprintf("password must be at least %d characters without surrounding spaces", password.MinLength))
	}
	hash, err := password.HashWithCost(next, s.hashCost)
	if err != nil {
		return User{}, Result{}, fmt.Errorf("hash password: %w", err)
	}
	var updated User
	res, err := s.run(ctx, "change_password", func(tx *Transaction) error {
		u, err := actorIn(tx.View(), actor)
		if err != nil {
			return err
		}
		if !password.Verify(current, u.Password) {
			return domain.NewPermissionDenied("current password is incorrect")
		}
		updated, err = tx.updateUser(u.NRIC, func(u *User) error {
			u.Password = hash
			return nil
		})
		return err
	})
	return updated, res, err
}

// User returns the stored user by NRIC.
func (s *Service) User(ctx context.Context, nric string) (User, error) {
	var user User
	err := s.read(ctx, "get_user", func(view TransactionView) error {
		u, ok := view.FindUser(nric)
		if !ok {
			return domain.NewNotFound(EntityUser, nric)
		}
		user = u
		return nil
	})
	return user, err
}
