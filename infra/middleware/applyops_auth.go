package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"applyops_server/pkg/apperr"
)

// Auth validates the Bearer session token and stores the caller's user
// id in Locals("user_id") as uuid.UUID.
func Auth(jwtSecret string) fiber.Handler {
	secret := []byte(jwtSecret)

	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("missing authorization header")
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			return apperr.InvalidToken("authorization header must be a bearer token")
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return apperr.InvalidToken("invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperr.InvalidToken("invalid token claims")
		}
		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return apperr.InvalidToken("invalid subject claim")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
