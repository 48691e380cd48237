package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateAdminJWT issues a short-lived admin token with a role claim
func GenerateAdminJWT(cfg *config.Config) (token string, expiresAt time.Time, err error) {
	expiresAt = time.Now().Add(time.Duration(cfg.JWT.ExpiresIn) * time.Second)
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString([]byte(cfg.JWT.Secret))
	return token, expiresAt, err
}

// ValidateJWT parses and validates a token, returning its claims
func ValidateJWT(tokenString string, cfg *config.Config) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
