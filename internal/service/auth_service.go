package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

// AuthService validates bearer tokens issued by the identity provider.
type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if claims.UserID == "" || !models.ValidRole(claims.Role) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing identity claims")
	}
	return claims, nil
}
