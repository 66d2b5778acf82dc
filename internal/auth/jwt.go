package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/epost-hub/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the verified claim set of a token. It is only produced by JWTService.Validate,
// so holding one means signature and expiry were checked.
type Claims struct {
	UserID uuid.UUID   `json:"userId"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	jwt.RegisteredClaims
}

// HasRole reports whether the verified claims carry one of roles.
func (c *Claims) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// DisplayClaims is what a token says about its bearer, without any verification.
// Use it to label a UI or a log line; it has no role checks on purpose.
type DisplayClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// DecodeDisplayClaims reads the payload of a token without checking its signature or expiry.
func DecodeDisplayClaims(tokenString string) (DisplayClaims, error) {
	var out struct {
		DisplayClaims
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &out); err != nil {
		return DisplayClaims{}, ErrInvalidToken
	}
	return out.DisplayClaims, nil
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
	now         func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
		now:         time.Now,
	}
}

// Generate creates a signed token for the user.
func (s *JWTService) Generate(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses a token, verifying HMAC signature and expiry, and returns its claims.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
