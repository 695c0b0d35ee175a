package services

import (
	"errors"
	"time"

	"platewire/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AuthService issues and validates the identity tokens presented at the
// websocket handshake. Identity is established once per connection and is
// immutable afterwards.
type AuthService interface {
	GenerateToken(userID domain.UserID, role domain.Role, email, displayName string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type Claims struct {
	UserID      domain.UserID `json:"user_id"`
	Role        domain.Role   `json:"role"`
	Email       string        `json:"email,omitempty"`
	DisplayName string        `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}

// Identity materializes the claims into the connection identity carried for
// the socket's lifetime. The connection id is assigned by the transport.
func (c *Claims) Identity() *domain.Connection {
	return &domain.Connection{
		UserID:      c.UserID,
		Role:        c.Role,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}
}

type authService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) GenerateToken(userID domain.UserID, role domain.Role, email, displayName string) (string, error) {
	if !role.IsValid() {
		return "", domain.ErrIdentityIncomplete
	}

	claims := &Claims{
		UserID:      userID,
		Role:        role,
		Email:       email,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || !claims.Role.IsValid() {
		return nil, domain.ErrIdentityIncomplete
	}

	return claims, nil
}
