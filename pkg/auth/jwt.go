package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

type JWTService interface {
	GenerateAccessToken(user *model.User) (string, error)
	GenerateRefreshToken(user *model.User) (string, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
}

type Config struct {
	Secret        string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type jwtService struct {
	cfg Config
	now func() time.Time
}

func NewJWTService(cfg Config) JWTService {
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.Secret
	}
	return &jwtService{cfg: cfg, now: time.Now}
}

func (s *jwtService) GenerateAccessToken(user *model.User) (string, error) {
	return s.sign(user, model.TokenTypeAccess, s.cfg.AccessTTL, s.cfg.Secret)
}

func (s *jwtService) GenerateRefreshToken(user *model.User) (string, error) {
	return s.sign(user, model.TokenTypeRefresh, s.cfg.RefreshTTL, s.cfg.RefreshSecret)
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.parse(token, model.TokenTypeAccess, s.cfg.Secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.parse(token, model.TokenTypeRefresh, s.cfg.RefreshSecret)
}

func (s *jwtService) sign(user *model.User, tokenType string, ttl time.Duration, secret string) (string, error) {
	now := s.now()
	c := claims{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Role:      string(user.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *jwtService) parse(raw, tokenType, secret string) (*model.TokenClaims, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.cfg.Issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	if c.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}

	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id", ErrInvalidToken)
	}
	role, ok := model.ParseRole(c.Role)
	if !ok {
		return nil, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}

	return &model.TokenClaims{
		UserID:    userID,
		Email:     c.Email,
		Role:      role,
		TokenType: c.TokenType,
	}, nil
}
