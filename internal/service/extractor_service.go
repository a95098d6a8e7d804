package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/config"
	"github.com/tidwall/gjson"
)

// JobStatus is the extraction service's view of one analysis job.
type JobStatus struct {
	Status    string
	CreatedAt time.Time
}

type ExtractorServiceInterface interface {
	Submit(ctx context.Context, sessionID uuid.UUID, filename, document string) (string, error)
	GetStatus(ctx context.Context, jobRef string) (*JobStatus, error)
	FetchDerived(ctx context.Context, sessionID uuid.UUID) (string, error)
}

// ExtractorService talks to the document extraction backend. Submission
// returns a job handle; the derived profile is read separately once the job
// reports completed, and may lag the status flip.
type ExtractorService struct {
	client  *resty.Client
	baseURL string
}

func NewExtractorService() *ExtractorService {
	cfg := config.LoadExtractorConfig()
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &ExtractorService{client: client, baseURL: cfg.BaseURL}
}

func (s *ExtractorService) Submit(ctx context.Context, sessionID uuid.UUID, filename, document string) (string, error) {
	if strings.TrimSpace(document) == "" {
		return "", fmt.Errorf("document text cannot be empty")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"session_id": sessionID.String(),
			"filename":   filename,
			"document":   document,
		}).
		Post("/v1/extractions")
	if err != nil {
		return "", fmt.Errorf("submit extraction: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("submit extraction: status %d: %s", resp.StatusCode(), resp.String())
	}

	jobRef := gjson.Get(resp.String(), "job_id").String()
	if jobRef == "" {
		return "", fmt.Errorf("submit extraction: no job_id in response")
	}
	return jobRef, nil
}

func (s *ExtractorService) GetStatus(ctx context.Context, jobRef string) (*JobStatus, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/v1/extractions/" + jobRef)
	if err != nil {
		return nil, fmt.Errorf("extraction status: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("extraction status: status %d", resp.StatusCode())
	}

	body := resp.String()
	status := gjson.Get(body, "status").String()
	if status == "" {
		return nil, fmt.Errorf("extraction status: no status in response")
	}
	createdAt, _ := time.Parse(time.RFC3339, gjson.Get(body, "created_at").String())
	return &JobStatus{Status: status, CreatedAt: createdAt}, nil
}

// FetchDerived reads the session's derived profile data. Returns "" with no
// error when the data is not visible yet; callers retry with backoff.
func (s *ExtractorService) FetchDerived(ctx context.Context, sessionID uuid.UUID) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/v1/sessions/" + sessionID.String() + "/profile")
	if err != nil {
		return "", fmt.Errorf("fetch derived profile: %w", err)
	}
	if resp.StatusCode() == 404 {
		return "", nil
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch derived profile: status %d", resp.StatusCode())
	}

	data := gjson.Get(resp.String(), "data").Raw
	if data == "" || data == "null" {
		return "", nil
	}
	return data, nil
}
