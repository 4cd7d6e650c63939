package rest

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/viniciussvasques/crm-innexar/pkg/env"
)

type AuthConfig struct {
	secret []byte
}

func NewAuthConfig() *AuthConfig {
	return &AuthConfig{secret: []byte(env.GetEnv("ADMIN_JWT_SECRET", ""))}
}

// RequireAdmin guards admin-only routes with an HMAC-signed bearer token
// carrying role=admin.
func RequireAdmin(cfg *AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(cfg.secret) == 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "admin auth is not configured"})
		}

		header := c.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "missing bearer token"})
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return cfg.secret, nil
		})
		if err != nil || !parsed.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid token"})
		}
		if role, _ := claims["role"].(string); role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "admin role required"})
		}
		return c.Next()
	}
}
