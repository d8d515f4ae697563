package utils

import (
	"errors"
	"time"

	"jeffjackson/config"

	"github.com/golang-jwt/jwt"
)

const sessionTokenType = "booking_session"

// devSecret is only used when JWT_SECRET is unset outside production.
const devSecret = "jeffjackson-dev-secret"

func secretKey() ([]byte, error) {
	if config.AppConfig.JWTSecret != "" {
		return []byte(config.AppConfig.JWTSecret), nil
	}
	if config.IsProduction() {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return []byte(devSecret), nil
}

// GenerateSessionToken signs a token binding the bearer to one booking session.
func GenerateSessionToken(sessionID string, duration time.Duration) (string, error) {
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sessionID,
		"typ": sessionTokenType,
		"iat": now.Unix(),
		"exp": now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	key, err := secretKey()
	if err != nil {
		return nil, err
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
}

// ExtractSessionID returns the booking session a valid token was issued for.
func ExtractSessionID(tokenString string) (string, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if typ, _ := claims["typ"].(string); typ != sessionTokenType {
		return "", errors.New("token is not a booking session token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("token does not contain a valid 'sub' claim")
	}

	return sub, nil
}
