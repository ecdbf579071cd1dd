package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruxlab/labvault/internal/config"
)

const (
	tokenIssuer   = "labvault"
	tokenAudience = "labvault-api"
)

type store interface {
	CreateUser(ctx context.Context, email, passwordHash, username string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string) error
	RevokeToken(ctx context.Context, userID uuid.UUID, tokenHash string) error
}

// Service implements registration, login and token lifecycle.
type Service struct {
	store store
	cfg   config.AuthConfig
}

// NewService constructs an auth Service.
func NewService(store store, cfg config.AuthConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// Register creates a new account and returns the created user without
// sensitive fields.
func (s *Service) Register(ctx context.Context, email, password, username string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, string(hash), username)
	if err != nil {
		return User{}, err
	}

	return user.SafeUser(), nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh validates a refresh token against both its signature and the
// revocation store, then rotates the pair. Each refresh token is single-use:
// consuming it revokes it, so a replayed or logged-out token is rejected even
// while its JWT is still unexpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parseToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}

	email, _ := claims.extra["email"].(string)
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}
	if user.ID != userID {
		return TokenPair{}, ErrUnauthorized
	}

	if err := s.store.ConsumeRefreshToken(ctx, userID, hashToken(refreshToken)); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.parseToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err != nil {
		return ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrUnauthorized
	}

	return s.store.RevokeToken(ctx, userID, hashToken(refreshToken))
}

// VerifyAccessToken checks an access token and returns the authenticated
// principal.
func (s *Service) VerifyAccessToken(token string) (ContextUser, error) {
	claims, err := s.parseToken(token, s.cfg.AccessTokenSecret)
	if err != nil {
		return ContextUser{}, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ContextUser{}, ErrUnauthorized
	}

	email, _ := claims.extra["email"].(string)
	level := 0
	if v, ok := claims.extra["access_level"].(float64); ok {
		level = int(v)
	}

	return ContextUser{ID: userID, Email: email, AccessLevel: level}, nil
}

func (s *Service) issueTokens(ctx context.Context, user User) (TokenPair, error) {
	now := time.Now()

	access, err := s.signToken(user, now, s.cfg.AccessTokenTTL, s.cfg.AccessTokenSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.signToken(user, now, s.cfg.RefreshTokenTTL, s.cfg.RefreshTokenSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL)
	if err := s.store.StoreRefreshToken(ctx, user.ID, hashToken(refresh), refreshExpiry); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  now.Add(s.cfg.AccessTokenTTL),
		RefreshToken:       refresh,
		RefreshTokenExpiry: refreshExpiry,
	}, nil
}

func (s *Service) signToken(user User, now time.Time, ttl time.Duration, secret string) (string, error) {
	claims := jwt.MapClaims{
		"iss":          tokenIssuer,
		"aud":          tokenAudience,
		"sub":          user.ID.String(),
		"email":        user.Email,
		"access_level": user.AccessLevel,
		"iat":          now.Unix(),
		"exp":          now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

type parsedClaims struct {
	Subject string
	extra   map[string]any
}

func (s *Service) parseToken(raw, secret string) (parsedClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return parsedClaims{}, ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return parsedClaims{}, ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	return parsedClaims{Subject: sub, extra: claims}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
