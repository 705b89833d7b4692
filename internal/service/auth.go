package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/permpkin/admin-console/internal/domain"
)

// MinPasswordLength is the shortest password accepted at login and on
// account edits.
const MinPasswordLength = 8

// AuthService handles login, session token operations and password hashing.
type AuthService struct {
	users      domain.UserRepository
	jwtSecret  []byte
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// Login verifies credentials and returns the user with a signed session
// token. Unknown emails, accounts without a password and wrong passwords all
// yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, "", domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrUnauthorized
	}

	token, err := s.IssueToken(user, remember)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return user, token, nil
}

// IssueToken signs a session token for user. Remembered sessions expire
// after domain.RememberFor; others carry no expiry and live as long as the
// browser session cookie.
func (s *AuthService) IssueToken(user *domain.User, remember bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"rem": remember,
	}
	if remember {
		claims["exp"] = now.Add(domain.RememberFor).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and validates a session token string.
func (s *AuthService) ValidateToken(tokenString string) (domain.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Session{}, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}

	session := domain.Session{UserID: sub}
	if rem, ok := claims["rem"].(bool); ok {
		session.Remember = rem
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = iat.Time
	}
	return session, nil
}

// ResolveIdentity maps a session token to its user. An unusable token gives
// ErrUnauthorized; a valid token whose user has since been deleted gives
// ErrSessionInvalid so the caller can drop the cookie.
func (s *AuthService) ResolveIdentity(ctx context.Context, tokenString string) (*domain.User, error) {
	session, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// HashPassword returns the bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SeedAdmin creates an active administrator unless a user with email
// already exists. It reports whether an account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	if len(password) < MinPasswordLength {
		return false, fmt.Errorf("%w: admin password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}

	exists, err := s.users.Exists(ctx, domain.UserCriteria{Email: email})
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		Email:        email,
		Display:      "Administrator",
		PasswordHash: &hash,
		Status:       domain.UserStatusActive,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin, nil); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
