package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set caller role
type RoleType string

const (
	// RoleAdmin catalog 管理者, 可上傳/刪除 media
	RoleAdmin RoleType = "admin"
	// RoleService 內部服務 (encoder, catalog api)
	RoleService RoleType = "service"
	// RoleUser 一般使用者, 只能讀取
	RoleUser RoleType = "user"
)

// ErrInvalidToken token 無法驗證
var ErrInvalidToken = errors.New("invalid token")

// Claims structure for custom claims in JWT
type Claims struct {
	Subject string `json:"sub_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Manager sign / parse HS256 token
type Manager struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewManager create token Manager
func NewManager(secret, issuer string, expiration time.Duration) *Manager {
	if expiration <= 0 {
		expiration = 60 * time.Minute
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: expiration,
	}
}

// Generate generates a JWT token
func (m *Manager) Generate(subject string, role RoleType) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: subject,
		Role:    string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse parses a JWT and extracts the Claims, 過期或簽章錯誤回傳 ErrInvalidToken
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Check if the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
