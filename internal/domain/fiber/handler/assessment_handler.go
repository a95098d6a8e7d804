package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/dto"
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/naufalhakim/profile-builder/internal/scoring"
	"github.com/naufalhakim/profile-builder/internal/usecase"
	"github.com/naufalhakim/profile-builder/internal/util"
)

type AssessmentHandler struct {
	uc *usecase.AssessmentUsecase
}

func NewAssessmentHandler(uc *usecase.AssessmentUsecase) *AssessmentHandler {
	return &AssessmentHandler{uc: uc}
}

func (h *AssessmentHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/wizard/:sessionId/assessments", h.Start)
	app.Get("/wizard/:sessionId/assessments", h.ListBySession)
	app.Post("/assessments/:id/responses", h.SubmitResponses)
	app.Get("/assessments", h.List)
	app.Get("/create-position-embedding", h.CreatePositionEmbedding)
}

// Start opens a new assessment for one skill: generates the questions and
// returns them without the answer key.
func (h *AssessmentHandler) Start(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid session id",
		}, err)
	}

	var req dto.StartAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	if req.SkillName == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "skill_name is required",
		}, nil)
	}

	assessment, questions, err := h.uc.Start(c.Context(), sessionID, req.SkillName, req.RequiredLevel, req.Context)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to start assessment",
		}, err)
	}

	data := toAssessmentDTO(assessment)
	data.Questions = toQuestionDTOs(questions)
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success start assessment",
		Data:    data,
	})
}

// SubmitResponses scores the attempt. A scored assessment is immutable; a
// second submission is refused.
func (h *AssessmentHandler) SubmitResponses(c *fiber.Ctx) error {
	var req dto.SubmitResponsesRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	responses := make([]scoring.Response, len(req.Responses))
	for i, r := range req.Responses {
		responses[i] = scoring.Response{
			QuestionID:     r.QuestionID,
			SelectedAnswer: r.SelectedAnswer,
			TimeTakenSec:   r.TimeTakenSec,
		}
	}

	assessment, err := h.uc.SubmitResponses(c.Params("id"), responses)
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyScored) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusConflict,
				Message: "assessment already scored; start a new attempt to retake",
			}, err)
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to score assessment",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success score assessment",
		Data:    toAssessmentDTO(assessment),
	})
}

func (h *AssessmentHandler) ListBySession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid session id",
		}, err)
	}

	list, err := h.uc.ListBySession(sessionID)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list assessments",
		}, err)
	}

	data := make([]dto.AssessmentDTO, len(list))
	for i := range list {
		data[i] = toAssessmentDTO(&list[i])
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success list assessments",
		Data:    data,
	})
}

func (h *AssessmentHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 10)

	list, pagination, err := h.uc.List(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list assessments",
		}, err)
	}

	data := make([]dto.AssessmentDTO, len(list))
	for i := range list {
		data[i] = toAssessmentDTO(&list[i])
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success list assessments",
		Data:       data,
		Pagination: pagination,
	})
}

func (h *AssessmentHandler) CreatePositionEmbedding(c *fiber.Ctx) error {
	if err := h.uc.SeedPositionEmbeddings(c.Context()); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to create position embedding",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success create position embedding",
	})
}

func toAssessmentDTO(a *model.SkillAssessment) dto.AssessmentDTO {
	return dto.AssessmentDTO{
		ID:            a.ID,
		SessionID:     a.SessionID,
		SkillName:     a.SkillName,
		RequiredLevel: a.RequiredLevel,
		Score:         a.Score,
		Level:         a.Level,
		Confidence:    a.Confidence,
		Passed:        a.Passed,
		Scored:        a.Scored,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toQuestionDTOs(questions []scoring.Question) []dto.AssessmentQuestionDTO {
	out := make([]dto.AssessmentQuestionDTO, len(questions))
	for i, q := range questions {
		out[i] = dto.AssessmentQuestionDTO{
			ID:           q.ID,
			Prompt:       q.Prompt,
			Options:      q.Options,
			Difficulty:   q.Difficulty,
			TimeLimitSec: q.TimeLimitSec,
		}
	}
	return out
}
