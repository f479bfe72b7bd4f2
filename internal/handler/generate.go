package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/songforge/api/internal/middleware"
	"github.com/songforge/api/internal/model"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

// GenerateHandler exposes the generation pipeline over HTTP: primary
// generation, extension, stem separation, concatenation, plus status
// polling and local cancel.
type GenerateHandler struct {
	service   *service.GenerationService
	validator *validator.Validate
}

func NewGenerateHandler(svc *service.GenerationService, v *validator.Validate) *GenerateHandler {
	return &GenerateHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /generate
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.StartGeneration(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, model.TaskResponse{Success: true, TaskID: job.TaskID})
}

// Extend handles POST /extend
func (h *GenerateHandler) Extend(c *fiber.Ctx) error {
	var req model.ExtendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.StartExtension(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, model.TaskResponse{Success: true, TaskID: job.TaskID})
}

// Stems handles POST /stems
func (h *GenerateHandler) Stems(c *fiber.Ctx) error {
	var req model.StemsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.StartStemSeparation(c.Context(), middleware.GetUserID(c), req.AudioID)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, model.DataResponse{
		Success: true,
		Data:    fiber.Map{"taskId": job.TaskID},
	})
}

// Concat handles POST /concat
func (h *GenerateHandler) Concat(c *fiber.Ctx) error {
	var req model.ConcatRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.StartConcatenation(c.Context(), middleware.GetUserID(c), req.ClipIDs)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, model.DataResponse{
		Success: true,
		Data:    fiber.Map{"taskId": job.TaskID},
	})
}

// Status handles GET /status?ids={taskId}
func (h *GenerateHandler) Status(c *fiber.Ctx) error {
	taskID := c.Query("ids")
	if taskID == "" {
		return response.ValidationError(c, "ids query parameter is required", nil)
	}

	data, err := h.service.GetStatus(c.Context(), taskID)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, model.StatusResponse{Success: true, Data: *data})
}

// Cancel handles POST /cancel/:taskId — stops local polling only; the
// provider may still finish the task unobserved.
func (h *GenerateHandler) Cancel(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if taskID == "" {
		return response.ValidationError(c, "Task ID is required", nil)
	}

	job, err := h.service.CancelJob(c.Context(), taskID)
	if err != nil {
		return respondError(c, err)
	}

	return response.OK(c, fiber.Map{
		"success": true,
		"taskId":  job.TaskID,
		"status":  job.Status,
	})
}
