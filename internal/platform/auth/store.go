package auth

import (
	"context"
	"strings"

	"presensi-backend/internal/roster"
)

// Account is a login identity. Subject is the NIP when the roster has one,
// the username otherwise.
type Account struct {
	Username string
	Password string
	Subject  string
	Name     string
	Role     string
	JobTitle string
}

type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
}

type RosterLookup interface {
	FindByUsername(ctx context.Context, username string) (roster.Employee, bool)
}

// RosterStore reads accounts straight from the staff roster sheet.
type RosterStore struct{ roster RosterLookup }

func NewStore(r RosterLookup) AccountStore {
	return &RosterStore{roster: r}
}

func (s *RosterStore) GetByUsername(ctx context.Context, username string) (*Account, error) {
	e, ok := s.roster.FindByUsername(ctx, strings.TrimSpace(username))
	if !ok {
		return nil, nil
	}
	sub := strings.TrimSpace(e.NIP)
	if sub == "" {
		sub = e.Username
	}
	return &Account{
		Username: e.Username,
		Password: e.Password,
		Subject:  sub,
		Name:     e.DisplayName(),
		Role:     e.AppRole(),
		JobTitle: e.Role,
	}, nil
}
