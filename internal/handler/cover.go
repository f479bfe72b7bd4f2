package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/songforge/api/internal/middleware"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

// CoverHandler is the direct entry point into cover enrichment
type CoverHandler struct {
	service   *service.CoverService
	validator *validator.Validate
}

func NewCoverHandler(svc *service.CoverService, v *validator.Validate) *CoverHandler {
	return &CoverHandler{
		service:   svc,
		validator: v,
	}
}

// GenerateCover handles POST /generate-cover
func (h *CoverHandler) GenerateCover(c *fiber.Ctx) error {
	var req model.CoverRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	if req.UserID == "" {
		req.UserID = middleware.GetUserID(c)
	}

	imageURL, err := h.service.GenerateCover(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, model.CoverResponse{Success: true, ImageURL: imageURL})
}
