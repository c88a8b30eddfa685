package http

import (
	"github.com/gofiber/fiber/v2"

	in "applyops_server/core/port/in"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/response"
)

// AuthHandler handles account and Google OAuth routes.
type AuthHandler struct {
	auth        in.AuthService
	oauth       in.OAuthService
	frontendURL string
}

func NewAuthHandler(auth in.AuthService, oauth in.OAuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{auth: auth, oauth: oauth, frontendURL: frontendURL}
}

// RegisterPublic registers the routes that need no session.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/google", h.GoogleLogin)
	auth.Get("/google/callback", h.GoogleCallback)
}

// RegisterProtected registers the routes behind the auth middleware.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Get("/me", h.Me)
	auth.Get("/export", h.Export)
	auth.Delete("/account", h.DeleteAccount)
	auth.Get("/google/connect", h.GoogleConnect)
	auth.Get("/google/status", h.GoogleStatus)
	auth.Post("/google/disconnect", h.GoogleDisconnect)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req in.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	resp, err := h.auth.Register(c.Context(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req in.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	resp, err := h.auth.Login(c.Context(), &req)
	if err != nil {
		return err
	}
	return response.OK(c, resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, user)
}

func (h *AuthHandler) Export(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	bundle, err := h.auth.ExportData(c.Context(), userID)
	if err != nil {
		return err
	}
	c.Set("Content-Disposition", `attachment; filename="applyops-export.json"`)
	return c.JSON(bundle)
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAccount(c.Context(), userID); err != nil {
		return err
	}
	return response.NoContent(c)
}

// GoogleLogin starts the consent flow for an anonymous visitor.
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	url, err := h.oauth.GetAuthURL(c.Context(), nil)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"url": url})
}

// GoogleConnect starts the consent flow to link Google to the current
// account.
func (h *AuthHandler) GoogleConnect(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	url, err := h.oauth.GetAuthURL(c.Context(), &userID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"url": url})
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return apperr.BadRequest("missing code or state")
	}
	resp, err := h.oauth.HandleCallback(c.Context(), code, state)
	if err != nil {
		return err
	}
	// Browsers land here from Google's consent screen; hand the session
	// back to the frontend when one is configured.
	if h.frontendURL != "" {
		return c.Redirect(h.frontendURL+"/auth/callback?token="+resp.Token, fiber.StatusFound)
	}
	return response.OK(c, resp)
}

func (h *AuthHandler) GoogleStatus(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	status, err := h.oauth.Status(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, status)
}

func (h *AuthHandler) GoogleDisconnect(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	if err := h.oauth.Disconnect(c.Context(), userID); err != nil {
		return err
	}
	return response.NoContent(c)
}
