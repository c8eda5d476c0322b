package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"whiteboard-backend/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const issuer = "whiteboard-api"

// Claims identity claims carried by an access token
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies session tokens. Access tokens carry the
// identity claims; refresh tokens carry only the subject.
type JWTManager struct {
	secret []byte
	cfg    config.AuthConfig
}

// NewJWTManager creates a JWTManager from the auth configuration
func NewJWTManager(cfg config.AuthConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		cfg:    cfg,
	}
}

func registered(userID int64, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
	}
}

func (m *JWTManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// GenerateAccessToken issues an access token for a user
func (m *JWTManager) GenerateAccessToken(userID int64, email, name string) (string, error) {
	return m.sign(&Claims{
		UserID:           userID,
		Email:            email,
		Name:             name,
		RegisteredClaims: registered(userID, m.cfg.AccessTokenExpiry),
	})
}

// GenerateRefreshToken issues a refresh token carrying only the subject
func (m *JWTManager) GenerateRefreshToken(userID int64) (string, error) {
	rc := registered(userID, m.cfg.RefreshTokenExpiry)
	return m.sign(&rc)
}

// parse verifies signature and expiry, filling the supplied claims value.
// Only HMAC signatures are accepted.
func (m *JWTManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// ValidateAccessToken verifies an access token and returns its claims
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	var claims Claims
	if err := m.parse(tokenString, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ValidateRefreshToken verifies a refresh token and returns the user ID
func (m *JWTManager) ValidateRefreshToken(tokenString string) (int64, error) {
	var claims jwt.RegisteredClaims
	if err := m.parse(tokenString, &claims); err != nil {
		return 0, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
