package token

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set member role
type RoleType string

const (
	// RoleAdmin is the admin role
	RoleAdmin RoleType = "admin"
	// RoleMember is the member role
	RoleMember RoleType = "member"
)

// Claims structure for custom claims in JWT
type Claims struct {
	MemberID string `json:"user_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken token can't be parsed or is expired
var ErrInvalidToken = errors.New("invalid token")

// ErrDefaultSecret Configure got no secret, the built-in development key stays in use
var ErrDefaultSecret = errors.New("jwt secret not set, using development key")

var (
	mu              sync.RWMutex
	jwtSecret       = []byte("secure_secret_key")
	tokenExpiration = 24 * time.Hour
)

// Configure set signing secret and expiration, empty / zero keep the default
// 沒給 secret 時回傳 ErrDefaultSecret, 由呼叫端決定是否中止
func Configure(secret string, expire time.Duration) error {
	mu.Lock()
	defer mu.Unlock()
	if expire > 0 {
		tokenExpiration = expire
	}
	if secret == "" {
		return ErrDefaultSecret
	}
	jwtSecret = []byte(secret)
	return nil
}

func settings() ([]byte, time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	return jwtSecret, tokenExpiration
}

// GenerateJWT generates a JWT token
func GenerateJWT(memberID, role, issuer string) (string, error) {
	secret, expire := settings()
	now := time.Now()
	claims := Claims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseJWT parses a JWT and extracts the Claims, accept "Bearer " prefix
func ParseJWT(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimPrefix(strings.TrimSpace(tokenStr), "Bearer ")
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	secret, _ := settings()

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.MemberID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
