package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
)

// AuthService issues custody accounts and the bearer tokens that act for
// them. There are no passwords: possession of the token is possession of the
// account, like a private key.
type AuthService struct {
	ledger *repository.LedgerRepository
	secret []byte
	ttl    time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(ledger *repository.LedgerRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{ledger: ledger, secret: []byte(secret), ttl: ttl}
}

// Register creates a fresh custody account and returns it together with a
// signed bearer token for its address.
func (s *AuthService) Register(ctx context.Context, label string) (*domain.Account, string, error) {
	id := uuid.New()
	account := &domain.Account{
		ID:        id,
		Address:   "acct:" + strings.ReplaceAll(id.String(), "-", ""),
		Label:     label,
		CreatedAt: time.Now(),
	}
	if err := s.ledger.CreateAccount(ctx, account); err != nil {
		return nil, "", fmt.Errorf("auth_service.Register: %w", err)
	}

	token, err := s.SignToken(account.Address)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// SignToken mints an HS256 bearer token for a ledger address.
func (s *AuthService) SignToken(address string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": address,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth_service.SignToken: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns the ledger address it acts
// for.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrTokenInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrTokenInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", domain.ErrTokenInvalid
	}
	return sub, nil
}
