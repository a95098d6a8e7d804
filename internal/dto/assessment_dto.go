package dto

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentQuestionDTO is the client-facing view of a question. The correct
// answer and the explanation never leave the server before scoring.
type AssessmentQuestionDTO struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	Difficulty   int      `json:"difficulty"`
	TimeLimitSec int      `json:"time_limit_sec"`
}

type AssessmentDTO struct {
	ID            uuid.UUID               `json:"id"`
	SessionID     uuid.UUID               `json:"session_id"`
	SkillName     string                  `json:"skill_name"`
	RequiredLevel int                     `json:"required_level"`
	Questions     []AssessmentQuestionDTO `json:"questions,omitempty"`
	Score         float64                 `json:"score"`
	Level         int                     `json:"level"`
	Confidence    float64                 `json:"confidence"`
	Passed        bool                    `json:"passed"`
	Scored        bool                    `json:"scored"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type StartAssessmentRequest struct {
	SkillName     string `json:"skill_name"`
	RequiredLevel string `json:"required_level"` // basic, intermediate, advanced
	Context       string `json:"context"`        // free-text profile context
}

type AssessmentResponseItem struct {
	QuestionID     string  `json:"question_id"`
	SelectedAnswer int     `json:"selected_answer"`
	TimeTakenSec   float64 `json:"time_taken_sec"`
}

type SubmitResponsesRequest struct {
	Responses []AssessmentResponseItem `json:"responses"`
}
