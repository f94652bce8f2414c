package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 72 * time.Hour

var ErrInvalidClaims = errors.New("token is missing client claims")

// Claims identify the dashboard member and the membership the dashboard reads.
type Claims struct {
	ClientID   string `json:"client_id"`
	Membership string `json:"membership"`
	jwt.RegisteredClaims
}

func GenerateToken(clientID, membership, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		ClientID:   clientID,
		Membership: membership,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.ClientID == "" || claims.Membership == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
