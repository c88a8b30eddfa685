// Package http contains the Fiber inbound adapters.
package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"applyops_server/pkg/apperr"
)

// GetUserID extracts the authenticated user id set by the auth
// middleware. Routes behind the middleware can rely on it being set.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, apperr.Unauthorized("")
	}
	return userID, nil
}

// ParseIDParam parses a uuid path parameter.
func ParseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid " + name)
	}
	return id, nil
}
