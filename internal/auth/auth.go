package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"complaintdesk/backend/internal/config"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
)

// RevocationStore remembers logged-out token ids.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims is the JWT payload issued to administrators.
type Claims struct {
	DisplayName string `json:"name"`
	Admin       bool   `json:"adm"`
	jwt.RegisteredClaims
}

// Service issues and verifies administrator tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	admins map[string]config.AdminUser
	store  RevocationStore
	now    func() time.Time
}

func NewService(cfg config.AuthConfig, store RevocationStore) *Service {
	admins := make(map[string]config.AdminUser, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a.Username] = a
	}
	return &Service{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		admins: admins,
		store:  store,
		now:    time.Now,
	}
}

// HashPassword returns the bcrypt hash stored in the admin configuration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the credentials against the configured admin accounts and
// returns a signed token with its expiry.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	admin, ok := s.admins[username]
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		DisplayName: admin.DisplayName,
		Admin:       true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   admin.Username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, expires, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify turns a bearer token into a Session. Revoked tokens are rejected.
func (s *Service) Verify(ctx context.Context, tokenString string) (Session, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return Session{}, err
	}
	if _, ok := s.admins[claims.Subject]; !ok {
		return Session{}, ErrInvalidToken
	}
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, fmt.Errorf("auth: check revocation: %w", err)
	}
	if revoked {
		return Session{}, ErrInvalidToken
	}
	return Session{ActorID: claims.Subject, DisplayName: claims.DisplayName, IsAdmin: claims.Admin}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	return s.store.RevokeToken(ctx, claims.ID, ttl)
}
