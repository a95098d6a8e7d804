package dto

import (
	"time"

	"github.com/google/uuid"
)

type WizardStepDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Optional bool   `json:"optional"`
	Complete bool   `json:"complete"`
	Current  bool   `json:"current"`
}

type DraftOfferDTO struct {
	StepIndex int       `json:"step_index"`
	CreatedAt time.Time `json:"created_at"`
}

type WizardStateDTO struct {
	SessionID   uuid.UUID         `json:"session_id"`
	StepIndex   int               `json:"step_index"`
	CurrentStep string            `json:"current_step"`
	Steps       []WizardStepDTO   `json:"steps"`
	Payloads    map[string]string `json:"payloads"`
	Finished    bool              `json:"finished"`
	LastSavedAt time.Time         `json:"last_saved_at,omitempty"`
	DraftOffer  *DraftOfferDTO    `json:"draft_offer,omitempty"`
	Stuck       *StuckDTO         `json:"stuck,omitempty"`
	Notices     []string          `json:"notices,omitempty"`
}

type StepPayloadRequest struct {
	Payload string `json:"payload"`
}

type AnalysisJobDTO struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	DocumentName   string    `json:"document_name"`
	PollAttempts   int       `json:"poll_attempts"`
	ManualContinue bool      `json:"manual_continue"`
	Stuck          *StuckDTO `json:"stuck,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type StuckDTO struct {
	AgeSecs int64  `json:"age_secs"`
	Message string `json:"message"`
}
