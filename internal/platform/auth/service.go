package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrAuthFailed = errors.New("authentication failed")

// Claims is the access token body. Subject carries the NIP.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &c, nil
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	Username string `json:"username"`
	NIP      string `json:"nip"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	JobTitle string `json:"job_title"`
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store AccountStore, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, err
	}
	if acct == nil || !passwordMatches(acct.Password, password) {
		return LoginResult{}, ErrAuthFailed
	}

	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: acct.Role,
		Name: acct.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     signed,
		ExpiresAt: exp,
		User: UserInfo{
			Username: acct.Username,
			NIP:      acct.Subject,
			Name:     acct.Name,
			Role:     acct.Role,
			JobTitle: acct.JobTitle,
		},
	}, nil
}

// passwordMatches accepts a bcrypt hash or, for sheets that still keep
// plain passwords, an exact match.
func passwordMatches(stored, given string) bool {
	if stored == "" || given == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
