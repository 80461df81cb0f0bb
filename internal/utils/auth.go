package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ValidateToken parses and validates an HS256 token issued by the auth service
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GenerateTerminalToken signs a token for a scan terminal
func GenerateTerminalToken(terminalID, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"terminal": terminalID,
		"type":     "terminal",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// TerminalID returns the terminal claim, if any
func TerminalID(claims jwt.MapClaims) string {
	id, _ := claims["terminal"].(string)
	return id
}
