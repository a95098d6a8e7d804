package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/naufalhakim/profile-builder/internal/repository"
	"github.com/naufalhakim/profile-builder/internal/response"
	"github.com/naufalhakim/profile-builder/internal/scoring"
	"github.com/naufalhakim/profile-builder/internal/service"
	"github.com/pgvector/pgvector-go"
)

// ErrAlreadyScored guards assessment immutability: a scored row never
// changes, a retake creates a new one.
var ErrAlreadyScored = errors.New("assessment already scored")

type AssessmentUsecase struct {
	assessmentRepo *repository.AssessmentRepository
	positionRepo   *repository.PositionRepository
	questions      service.QuestionServiceInterface
	scoringCfg     scoring.Config
}

func NewAssessmentUsecase(assessmentRepo *repository.AssessmentRepository, positionRepo *repository.PositionRepository, questions service.QuestionServiceInterface) *AssessmentUsecase {
	return &AssessmentUsecase{
		assessmentRepo: assessmentRepo,
		positionRepo:   positionRepo,
		questions:      questions,
		scoringCfg:     scoring.DefaultConfig(),
	}
}

// Start generates questions for one skill and opens a new assessment row.
// The most relevant position descriptions, found by embedding similarity,
// are injected into the generation prompt as context.
func (uc *AssessmentUsecase) Start(ctx context.Context, sessionID uuid.UUID, skillName, requiredLevelName, employeeContext string) (*model.SkillAssessment, []scoring.Question, error) {
	requiredLevel := scoring.RequiredLevel(requiredLevelName)

	positionContext := uc.buildPositionContext(ctx, skillName, employeeContext)

	questions, err := uc.questions.GenerateQuestions(ctx, skillName, requiredLevel, positionContext, employeeContext)
	if err != nil {
		return nil, nil, fmt.Errorf("generate questions: %w", err)
	}

	qJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, nil, err
	}

	assessment := &model.SkillAssessment{
		SessionID:     sessionID,
		SkillName:     skillName,
		RequiredLevel: requiredLevel,
		Questions:     string(qJSON),
		Responses:     "[]",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := uc.assessmentRepo.Create(assessment); err != nil {
		return nil, nil, err
	}
	return assessment, questions, nil
}

// buildPositionContext retrieves the nearest position descriptions via
// pgvector. Retrieval failures degrade to an empty context; question
// generation still proceeds.
func (uc *AssessmentUsecase) buildPositionContext(ctx context.Context, skillName, employeeContext string) string {
	emb, err := uc.questions.GenerateEmbedding(ctx, skillName+"\n"+employeeContext)
	if err != nil {
		log.Printf("assessment: embedding failed, generating without position context: %v", err)
		return ""
	}

	positions, err := uc.positionRepo.SearchPositions(pgvector.NewVector(emb), 3)
	if err != nil {
		log.Printf("assessment: position search failed: %v", err)
		return ""
	}

	positionContext := ""
	for i, p := range positions {
		positionContext += fmt.Sprintf("Position %d: %s\nRequirements: %s\n\n", i+1, p.Title, p.Content)
	}
	return positionContext
}

// SubmitResponses scores the attempt and seals the row. Correctness is
// decided here against the stored questions, never trusted from the client.
func (uc *AssessmentUsecase) SubmitResponses(id string, responses []scoring.Response) (*model.SkillAssessment, error) {
	assessment, err := uc.assessmentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if assessment.Scored {
		return nil, ErrAlreadyScored
	}

	var questions []scoring.Question
	if err := json.Unmarshal([]byte(assessment.Questions), &questions); err != nil {
		return nil, fmt.Errorf("stored questions unreadable: %w", err)
	}

	byID := make(map[string]scoring.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for i, r := range responses {
		if q, ok := byID[r.QuestionID]; ok {
			responses[i].Correct = r.SelectedAnswer == q.CorrectAnswer
		}
	}

	result := scoring.Score(questions, responses, assessment.RequiredLevel, uc.scoringCfg)

	rJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, err
	}

	assessment.Responses = string(rJSON)
	assessment.Score = result.Score
	assessment.Level = result.Level
	assessment.Confidence = result.Confidence
	assessment.Passed = result.Passed
	assessment.Scored = true
	assessment.UpdatedAt = time.Now()
	if err := uc.assessmentRepo.Update(assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

func (uc *AssessmentUsecase) GetAssessment(id string) (*model.SkillAssessment, error) {
	return uc.assessmentRepo.FindByID(id)
}

func (uc *AssessmentUsecase) ListBySession(sessionID uuid.UUID) ([]model.SkillAssessment, error) {
	return uc.assessmentRepo.ListBySession(sessionID)
}

func (uc *AssessmentUsecase) List(page, pageSize int) ([]model.SkillAssessment, *response.Pagination, error) {
	return uc.assessmentRepo.List(page, pageSize)
}

// SeedPositionEmbeddings backfills the embedding column for every stored
// position. Meant to run once after positions change.
func (uc *AssessmentUsecase) SeedPositionEmbeddings(ctx context.Context) error {
	positions, err := uc.positionRepo.GetPositions()
	if err != nil {
		return err
	}
	for i := range positions {
		emb, err := uc.questions.GenerateEmbedding(ctx, positions[i].Content)
		if err != nil {
			return fmt.Errorf("embed position %q: %w", positions[i].Title, err)
		}
		positions[i].Embedding = pgvector.NewVector(emb)
		positions[i].UpdatedAt = time.Now()
		if err := uc.positionRepo.UpdatePosition(&positions[i]); err != nil {
			return err
		}
	}
	return nil
}
