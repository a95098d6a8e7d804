package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/dto"
	"github.com/naufalhakim/profile-builder/internal/util"
	"github.com/naufalhakim/profile-builder/internal/wizard"
)

type WizardHandler struct {
	mgr      *wizard.Manager
	registry *wizard.Registry
}

func NewWizardHandler(mgr *wizard.Manager, registry *wizard.Registry) *WizardHandler {
	return &WizardHandler{mgr: mgr, registry: registry}
}

func (h *WizardHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/wizard/:sessionId", h.State)
	app.Put("/wizard/:sessionId/steps/:stepId", h.SetPayload)
	app.Post("/wizard/:sessionId/advance", h.Advance)
	app.Post("/wizard/:sessionId/back", h.Back)
	app.Post("/wizard/:sessionId/jump/:stepId", h.JumpTo)
	app.Post("/wizard/:sessionId/save", h.SaveAll)
	app.Post("/wizard/:sessionId/complete", h.Complete)
	app.Post("/wizard/:sessionId/draft/accept", h.AcceptDraft)
	app.Post("/wizard/:sessionId/draft/decline", h.DeclineDraft)
	app.Delete("/wizard/:sessionId", h.Teardown)
}

func (h *WizardHandler) runtime(c *fiber.Ctx) (*wizard.Runtime, uuid.UUID, error) {
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

func (h *WizardHandler) State(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get wizard state",
		Data:    h.stateDTO(rt, sessionID),
	})
}

func (h *WizardHandler) SetPayload(c *fiber.Ctx) error {
	rt, _, err := h.runtime(c)
	if err != nil {
		return err
	}
	var req dto.StepPayloadRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	rt.Controller.SetPayload(c.Params("stepId"), req.Payload)
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success record step edit",
	})
}

func (h *WizardHandler) Advance(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Controller.Advance(); err != nil {
		if errors.Is(err, wizard.ErrCannotAdvance) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnprocessableEntity,
				Message: "current step is not complete",
			}, err)
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to advance",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success advance",
		Data:    h.stateDTO(rt, sessionID),
	})
}

func (h *WizardHandler) Back(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	rt.Controller.Back()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success go back",
		Data:    h.stateDTO(rt, sessionID),
	})
}

func (h *WizardHandler) JumpTo(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Controller.JumpTo(c.Params("stepId")); err != nil {
		code := fiber.StatusUnprocessableEntity
		if errors.Is(err, wizard.ErrUnknownStep) {
			code = fiber.StatusNotFound
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    code,
			Message: err.Error(),
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success jump to step",
		Data:    h.stateDTO(rt, sessionID),
	})
}

func (h *WizardHandler) SaveAll(c *fiber.Ctx) error {
	rt, _, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Controller.SaveAll(); err != nil {
		// Partial failure: the rest was saved and a local draft exists.
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusServiceUnavailable,
			Message: "some sections could not be saved; a local draft was kept",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success save progress",
	})
}

// Complete seals the profile. Idempotent; repeating it is harmless.
func (h *WizardHandler) Complete(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Coordinator.Complete(rt.Controller.Session()); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to complete profile",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success complete profile",
		Data:    h.stateDTO(rt, sessionID),
	})
}

func (h *WizardHandler) AcceptDraft(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Coordinator.AcceptDraft(rt.Controller.Session()); err != nil {
		code := fiber.StatusInternalServerError
		if errors.Is(err, wizard.ErrNoDraft) {
			code = fiber.StatusNotFound
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    code,
			Message: "failed to restore draft",
		}, err)
	}
	rt.DraftOffer = nil
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success restore draft",
		Data:    h.stateDTO(rt, sessionID),
	})
}

func (h *WizardHandler) DeclineDraft(c *fiber.Ctx) error {
	rt, sessionID, err := h.runtime(c)
	if err != nil {
		return err
	}
	if err := rt.Coordinator.DeclineDraft(sessionID); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to discard draft",
		}, err)
	}
	rt.DraftOffer = nil
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success discard draft",
	})
}

func (h *WizardHandler) Teardown(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid session id",
		}, err)
	}
	h.mgr.Release(sessionID)
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success close wizard session",
	})
}

func (h *WizardHandler) stateDTO(rt *wizard.Runtime, sessionID uuid.UUID) dto.WizardStateDTO {
	sess := rt.Controller.Session()
	current := sess.CurrentIndex()

	var steps []dto.WizardStepDTO
	for i, def := range h.registry.Steps() {
		steps = append(steps, dto.WizardStepDTO{
			ID:       def.ID,
			Title:    def.Title,
			Optional: def.Optional,
			Complete: sess.IsComplete(def.ID),
			Current:  i == current,
		})
	}

	var offer *dto.DraftOfferDTO
	if rt.DraftOffer != nil {
		offer = &dto.DraftOfferDTO{
			StepIndex: rt.DraftOffer.StepIndex,
			CreatedAt: rt.DraftOffer.CreatedAt,
		}
	}

	// Stuck report from the reload-time heuristic: a recovery offer, shown
	// until the user restarts or continues manually.
	var stuck *dto.StuckDTO
	if rt.Stuck != nil {
		stuck = &dto.StuckDTO{AgeSecs: rt.Stuck.AgeSecs, Message: rt.Stuck.Message}
	}

	return dto.WizardStateDTO{
		SessionID:   sessionID,
		StepIndex:   current,
		CurrentStep: sess.CurrentStepID(),
		Steps:       steps,
		Payloads:    sess.PayloadMap(),
		Finished:    sess.Finished(),
		LastSavedAt: sess.LastSavedAt(),
		DraftOffer:  offer,
		Stuck:       stuck,
		Notices:     rt.Controller.DrainNotices(),
	}
}
