package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/songforge/api/internal/apperr"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/pkg/response"
)

// respondError maps the pipeline error taxonomy onto HTTP responses.
// Billing-relevant provider codes keep distinct response codes so the
// client can react differently (backoff vs billing prompt).
func respondError(c *fiber.Ctx, err error) error {
	if err == service.ErrNotFound {
		return response.NotFound(c, "Not found")
	}

	e, ok := apperr.As(err)
	if !ok {
		return response.ServiceError(c, err.Error())
	}

	switch e.Kind {
	case apperr.KindValidation:
		return response.ValidationError(c, e.Message, nil)
	case apperr.KindSubmission:
		return response.Error(c, fiber.StatusBadGateway, response.CodeSubmissionError, e.Error(), nil)
	case apperr.KindProvider:
		return respondProviderError(c, e)
	case apperr.KindNetwork:
		return response.Error(c, fiber.StatusBadGateway, response.CodeProviderError, e.Message, nil)
	case apperr.KindTimeout:
		return response.Error(c, fiber.StatusGatewayTimeout, response.CodeTimeout, e.Message, nil)
	default:
		return response.ServiceError(c, e.Error())
	}
}

func respondProviderError(c *fiber.Ctx, e *apperr.Error) error {
	switch e.Code {
	case apperr.CodeUnauthorized:
		return response.Error(c, fiber.StatusBadGateway, response.CodeInvalidAPIKey, e.Message, nil)
	case apperr.CodeInsufficientCredits:
		return response.Error(c, fiber.StatusPaymentRequired, response.CodeInsufficientCredits, e.Message, nil)
	case apperr.CodeRateLimited:
		return response.Error(c, fiber.StatusTooManyRequests, response.CodeProviderRateLimited, e.Message, nil)
	case apperr.CodeMaintenance:
		return response.Error(c, fiber.StatusServiceUnavailable, response.CodeProviderMaintenance, e.Message, nil)
	default:
		return response.Error(c, fiber.StatusBadGateway, response.CodeProviderError, e.Message, nil)
	}
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
