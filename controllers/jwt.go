package controllers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storia/models"
)

// GenerateToken emite o "crachá digital" do usuário: um JWT HS256 com
// sub/email/nome e validade em horas.
func GenerateToken(user models.User, secret string, validHours int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"nome":  user.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(validHours) * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(tokenString, secret string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("token inválido: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("claims inválidas")
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, fmt.Errorf("sub ausente")
	}
	return int64(sub), nil
}
