package services

import (
	"errors"
	"strings"

	"devstore/internal/domain"
	"devstore/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid email or password")

// AuthService binds browser sessions (the sid cookie) to user accounts.
// Checkout trusts the bound user for its identity guard, so login is the only
// place a session gains a user and logout the only place it loses one.
type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

// CurrentUser resolves the sid cookie to its signed-in user, if any.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// CompleteProfile reports whether the session's user would pass the checkout
// identity guard. An unbound session yields (nil, false).
func (s *AuthService) CompleteProfile(sid string) (*domain.User, bool) {
	u, err := s.CurrentUser(sid)
	if err != nil {
		return nil, false
	}
	return u, u.Complete()
}
