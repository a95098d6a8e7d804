package handler

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/dto"
	"github.com/naufalhakim/profile-builder/internal/middleware"
	"github.com/naufalhakim/profile-builder/internal/util"
	"github.com/naufalhakim/profile-builder/internal/wizard"
)

type AnalysisHandler struct {
	mgr *wizard.Manager
}

func NewAnalysisHandler(mgr *wizard.Manager) *AnalysisHandler {
	return &AnalysisHandler{mgr: mgr}
}

func (h *AnalysisHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/wizard/:sessionId/cv", middleware.RateLimiter(1, 4*time.Second), h.Upload)
	app.Get("/wizard/:sessionId/cv", h.Status)
	app.Post("/wizard/:sessionId/cv/restart", h.Restart)
}

// Upload receives the CV, extracts its text and submits it for analysis.
// Status then moves through uploading -> analyzing in the background.
func (h *AnalysisHandler) Upload(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}

	filename, content, err := h.processFile(c, "cv", "./uploads/cv/")
	if err != nil {
		return err
	}

	job, err := rt.Monitor.Submit(c.Context(), sessionID, filename, content)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to submit CV for analysis",
		}, err)
	}

	rt.Stuck = nil
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Success submit CV analysis",
		Data:    fiber.Map{"id": job.ID, "status": job.Status},
	})
}

func (h *AnalysisHandler) Status(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}

	job, err := rt.Monitor.Job(sessionID)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load analysis status",
		}, err)
	}
	if job == nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "no analysis job for this session",
		}, nil)
	}

	data := dto.AnalysisJobDTO{
		ID:             job.ID,
		Status:         job.Status,
		DocumentName:   job.DocumentName,
		PollAttempts:   job.PollAttempts,
		ManualContinue: job.ManualContinue,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	if stuck, err := rt.Monitor.CheckStuck(sessionID); err == nil && stuck != nil {
		data.Stuck = &dto.StuckDTO{AgeSecs: stuck.AgeSecs, Message: stuck.Message}
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get analysis status",
		Data:    data,
	})
}

// Restart discards the current job and every CV-derived section, returning
// the wizard to the upload step.
func (h *AnalysisHandler) Restart(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Monitor.Restart(sessionID); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to restart analysis",
		}, err)
	}
	rt.Stuck = nil
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success restart analysis",
	})
}

func (h *AnalysisHandler) runtime(c *fiber.Ctx) (*wizard.Runtime, uuid.UUID, error) {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return nil, uuid.Nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid session id",
		}, err)
	}
	rt, err := h.mgr.Acquire(sessionID)
	if err != nil {
		return nil, uuid.Nil, util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to load wizard session",
		}, err)
	}
	return rt, sessionID, nil
}

func (h *AnalysisHandler) processFile(c *fiber.Ctx, fieldName, uploadDir string) (string, string, error) {
	file, err := c.FormFile(fieldName)
	if err != nil {
		return "", "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: fmt.Sprintf("%s file is required", fieldName),
		}, err)
	}

	if file.Size > 5*1024*1024 {
		return "", "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("%s file size is too large (max 5MB)", fieldName),
		}, nil)
	}

	savePath := filepath.Join(uploadDir, file.Filename)
	if err := c.SaveFile(file, savePath); err != nil {
		return "", "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: fmt.Sprintf("cannot save %s file", fieldName),
		}, err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		return "", "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnsupportedMediaType,
			Message: fmt.Sprintf("unsupported %s file type", fieldName),
		}, nil)
	}

	content, err := util.ExtractPDFOCR(savePath)
	if err != nil {
		return "", "", util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: fmt.Sprintf("failed to extract %s text", fieldName),
		}, err)
	}
	return file.Filename, content, nil
}
