package http

import (
	"github.com/gofiber/fiber/v2"

	in "applyops_server/core/port/in"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/response"
)

// ApplicationHandler handles application tracking routes.
type ApplicationHandler struct {
	apps   in.ApplicationService
	ingest in.IngestService
}

func NewApplicationHandler(apps in.ApplicationService, ingest in.IngestService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, ingest: ingest}
}

// Register registers application routes.
func (h *ApplicationHandler) Register(router fiber.Router) {
	apps := router.Group("/applications")
	apps.Get("/", h.List)
	apps.Post("/", h.Create)
	apps.Post("/sync", h.Sync)
	apps.Get("/:id", h.Get)
	apps.Patch("/:id", h.Update)
	apps.Delete("/:id", h.Delete)
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	q := in.ListApplicationsQuery{
		Status:   c.Query("status"),
		Platform: c.Query("platform"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	resp, err := h.apps.List(c.Context(), userID, &q)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, resp.Items, &response.Meta{
		Total:    resp.Pagination.TotalItems,
		Page:     resp.Pagination.Page,
		PageSize: resp.Pagination.PageSize,
		HasMore:  resp.Pagination.Page < resp.Pagination.TotalPages,
	})
}

func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	var req in.CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	app, err := h.apps.Create(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return response.Created(c, app)
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	app, err := h.apps.Get(c.Context(), userID, id)
	if err != nil {
		return err
	}
	return response.OK(c, app)
}

func (h *ApplicationHandler) Update(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req in.UpdateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	app, err := h.apps.Update(c.Context(), userID, id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, app)
}

func (h *ApplicationHandler) Delete(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.apps.Delete(c.Context(), userID, id); err != nil {
		return err
	}
	return response.NoContent(c)
}

// Sync triggers a mailbox ingestion run. A run already in flight for
// this user answers 409.
func (h *ApplicationHandler) Sync(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	report, err := h.ingest.SyncEmails(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, report)
}
