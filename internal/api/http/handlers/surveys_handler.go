package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// SurveysHandler serves the public satisfaction survey endpoints. The token
// in the path is the only credential.
type SurveysHandler struct {
	service *service.SurveyService
}

// NewSurveysHandler constructs handler.
func NewSurveysHandler(surveyService *service.SurveyService) *SurveysHandler {
	return &SurveysHandler{service: surveyService}
}

// Get GET /surveys/:token.
func (h *SurveysHandler) Get(c *fiber.Ctx) error {
	summary, err := h.service.FetchByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSurveySummary(summary)})
}

// Redeem POST /surveys/:token.
func (h *SurveysHandler) Redeem(c *fiber.Ctx) error {
	var req dto.RedeemSurveyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	survey, err := h.service.Redeem(c.UserContext(), c.Params("token"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewSurveyResponse(survey)})
}
