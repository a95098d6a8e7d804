package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/naufalhakim/profile-builder/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig shrinks every interval so lifecycles finish in milliseconds.
func testConfig() Config {
	return Config{
		PollInterval:     time.Millisecond,
		MaxPollAttempts:  45,
		FetchBaseDelay:   time.Millisecond,
		FetchMaxDelay:    4 * time.Millisecond,
		FetchMaxAttempts: 3,
		StuckAfter:       5 * time.Minute,
	}
}

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]model.AnalysisJob // keyed by session id
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[uuid.UUID]model.AnalysisJob)}
}

func (s *fakeJobStore) Create(job *model.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	s.jobs[job.SessionID] = *job
	return nil
}

func (s *fakeJobStore) Update(job *model.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.SessionID] = *job
	return nil
}

func (s *fakeJobStore) FindBySession(sessionID uuid.UUID) (*model.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[sessionID]
	if !ok {
		return nil, nil
	}
	out := job
	return &out, nil
}

func (s *fakeJobStore) Delete(sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, sessionID)
	return nil
}

func (s *fakeJobStore) get(sessionID uuid.UUID) *model.AnalysisJob {
	job, _ := s.FindBySession(sessionID)
	return job
}

type fakeSectionDeleter struct {
	mu      sync.Mutex
	deleted [][]string
}

func (d *fakeSectionDeleter) Delete(_ uuid.UUID, names []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, names)
	return nil
}

type fakeExtractor struct {
	mu          sync.Mutex
	submitErr   error
	statuses    []string // consumed one per poll; the last value repeats
	statusCalls int
	statusErrs  int // number of leading transient status errors
	derived     string
	derivedLag  int // polls returning empty before data appears
	derivedCall int
	statusGate  chan struct{} // when set, GetStatus blocks until closed
	gateEntered chan struct{}
}

func (f *fakeExtractor) Submit(_ context.Context, _ uuid.UUID, _, _ string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-ref-1", nil
}

func (f *fakeExtractor) GetStatus(_ context.Context, _ string) (*service.JobStatus, error) {
	f.mu.Lock()
	f.statusCalls++
	call := f.statusCalls
	gate := f.statusGate
	entered := f.gateEntered
	if f.statusErrs > 0 {
		f.statusErrs--
		f.mu.Unlock()
		return nil, errors.New("transient read error")
	}
	var status string
	if len(f.statuses) > 0 {
		idx := call - 1
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		status = f.statuses[idx]
	} else {
		status = StatusAnalyzing
	}
	f.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}
	return &service.JobStatus{Status: status, CreatedAt: time.Now()}, nil
}

func (f *fakeExtractor) FetchDerived(_ context.Context, _ uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derivedCall++
	if f.derivedCall <= f.derivedLag {
		return "", nil
	}
	return f.derived, nil
}

func (f *fakeExtractor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

type capture struct {
	mu       sync.Mutex
	profiles []string
	resets   int
}

func (c *capture) extracted(_ uuid.UUID, profile string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = append(c.profiles, profile)
}

func (c *capture) reset(_ uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
}

func (c *capture) extractedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.profiles)
}

func TestSubmitRejectedFailsImmediately(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{submitErr: errors.New("document too large")}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	sessionID := uuid.New()

	job, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.Error(t, err)
	require.NotNil(t, job)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, StatusFailed, store.get(sessionID).Status)

	// No polling ever starts for a rejected submission.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, extractor.calls())
}

func TestLifecycleCompletesAndDeliversData(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{
		statuses: []string{StatusAnalyzing, StatusAnalyzing, StatusCompleted},
		derived:  `{"Skills":["go","sql"],"WorkExperience":[{"company":"acme"}]}`,
	}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	cap := &capture{}
	m.OnExtracted(cap.extracted)
	sessionID := uuid.New()

	job, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)
	assert.Equal(t, StatusAnalyzing, job.Status)

	require.Eventually(t, func() bool {
		j := store.get(sessionID)
		return j != nil && j.Status == StatusCompleted
	}, time.Second, time.Millisecond)

	j := store.get(sessionID)
	assert.False(t, j.ManualContinue)
	assert.Contains(t, j.ExtractedRef, `"skills"`)
	assert.Contains(t, j.ExtractedRef, `"work_experience"`)

	require.Eventually(t, func() bool { return cap.extractedCount() == 1 }, time.Second, time.Millisecond)
}

func TestDerivedDataLagIsRetried(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{
		statuses:   []string{StatusCompleted},
		derived:    `{"skills":["go"]}`,
		derivedLag: 2,
	}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	sessionID := uuid.New()

	_, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j := store.get(sessionID)
		return j != nil && j.Status == StatusCompleted && j.ExtractedRef != ""
	}, time.Second, time.Millisecond)
	assert.False(t, store.get(sessionID).ManualContinue)
}

func TestCompletedWithoutDataIsManualContinue(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{statuses: []string{StatusCompleted}, derived: ""}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	cap := &capture{}
	m.OnExtracted(cap.extracted)
	sessionID := uuid.New()

	_, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j := store.get(sessionID)
		return j != nil && j.Status == StatusCompleted
	}, time.Second, time.Millisecond)

	j := store.get(sessionID)
	assert.True(t, j.ManualContinue, "exhausted retries still count as completed, not an error")
	assert.Equal(t, 0, cap.extractedCount())
}

func TestFailedStatusStopsPolling(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{statuses: []string{StatusAnalyzing, StatusFailed}}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	sessionID := uuid.New()

	_, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j := store.get(sessionID)
		return j != nil && j.Status == StatusFailed
	}, time.Second, time.Millisecond)

	calls := extractor.calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, extractor.calls())
}

func TestTransientPollErrorsDoNotFailJob(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{
		statusErrs: 3,
		statuses:   []string{StatusCompleted},
		derived:    `{"skills":["go"]}`,
	}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	sessionID := uuid.New()

	_, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j := store.get(sessionID)
		return j != nil && j.Status == StatusCompleted
	}, time.Second, time.Millisecond)
}

func TestPollingCeilingBecomesTimeout(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{} // analyzing forever
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	sessionID := uuid.New()

	_, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		j := store.get(sessionID)
		return j != nil && j.Status == StatusTimeout
	}, time.Second, time.Millisecond)

	assert.Equal(t, 45, extractor.calls())

	// After the ceiling no further network calls occur.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 45, extractor.calls())
}

func TestRestartIgnoresPendingPollResponse(t *testing.T) {
	store := newFakeJobStore()
	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	extractor := &fakeExtractor{
		statuses:    []string{StatusCompleted},
		derived:     `{"skills":["go"]}`,
		statusGate:  gate,
		gateEntered: entered,
	}
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	cap := &capture{}
	m.OnExtracted(cap.extracted)
	m.OnReset(cap.reset)
	sessionID := uuid.New()

	_, err := m.Submit(context.Background(), sessionID, "cv.pdf", "text")
	require.NoError(t, err)

	// Wait for a poll request to be in flight, then restart underneath it.
	<-entered
	require.NoError(t, m.Restart(sessionID))
	close(gate)

	// The pending poll's completed response must not write stale state.
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, store.get(sessionID))
	assert.Equal(t, 0, cap.extractedCount())
	assert.Equal(t, 1, cap.resets)
}

func TestRestartDeletesDerivedSectionsOnly(t *testing.T) {
	store := newFakeJobStore()
	sections := &fakeSectionDeleter{}
	m := NewMonitor(store, sections, &fakeExtractor{}, testConfig())
	sessionID := uuid.New()

	require.NoError(t, store.Create(&model.AnalysisJob{SessionID: sessionID, Status: StatusAnalyzing, DocumentName: "cv.pdf"}))
	require.NoError(t, m.Restart(sessionID))

	assert.Nil(t, store.get(sessionID))
	require.Len(t, sections.deleted, 1)
	assert.Equal(t, DerivedSectionNames, sections.deleted[0])
}

func TestRestartSafeWithNoLiveJob(t *testing.T) {
	m := NewMonitor(newFakeJobStore(), &fakeSectionDeleter{}, &fakeExtractor{}, testConfig())
	assert.NoError(t, m.Restart(uuid.New()))
}

func TestTransitionForwardOnly(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{StatusNotStarted, StatusUploading, true},
		{StatusUploading, StatusAnalyzing, true},
		{StatusUploading, StatusFailed, true},
		{StatusAnalyzing, StatusCompleted, true},
		{StatusAnalyzing, StatusTimeout, true},
		{StatusCompleted, StatusAnalyzing, false},
		{StatusFailed, StatusAnalyzing, false},
		{StatusTimeout, StatusAnalyzing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusAnalyzing, StatusUploading, false},
		{StatusAnalyzing, StatusAnalyzing, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, transitionAllowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCheckStuckAnalyzingJob(t *testing.T) {
	store := newFakeJobStore()
	m := NewMonitor(store, &fakeSectionDeleter{}, &fakeExtractor{}, testConfig())
	sessionID := uuid.New()

	require.NoError(t, store.Create(&model.AnalysisJob{
		SessionID:    sessionID,
		Status:       StatusAnalyzing,
		DocumentName: "cv.pdf",
		CreatedAt:    time.Now().Add(-10 * time.Minute),
	}))

	report, err := m.CheckStuck(sessionID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, StatusAnalyzing, report.Status)
	assert.NotContains(t, report.Message, "fail")
}

func TestCheckStuckUploadingStall(t *testing.T) {
	store := newFakeJobStore()
	m := NewMonitor(store, &fakeSectionDeleter{}, &fakeExtractor{}, testConfig())
	sessionID := uuid.New()

	require.NoError(t, store.Create(&model.AnalysisJob{
		SessionID:    sessionID,
		Status:       StatusUploading,
		DocumentName: "cv.pdf",
		CreatedAt:    time.Now().Add(-10 * time.Minute),
	}))

	report, err := m.CheckStuck(sessionID)
	require.NoError(t, err)
	require.NotNil(t, report)
}

func TestCheckStuckIgnoresRecentAndClearedJobs(t *testing.T) {
	store := newFakeJobStore()
	m := NewMonitor(store, &fakeSectionDeleter{}, &fakeExtractor{}, testConfig())

	// No job at all.
	report, err := m.CheckStuck(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, report)

	// Recent job within the staleness threshold.
	recent := uuid.New()
	require.NoError(t, store.Create(&model.AnalysisJob{
		SessionID:    recent,
		Status:       StatusAnalyzing,
		DocumentName: "cv.pdf",
		CreatedAt:    time.Now().Add(-time.Minute),
	}))
	report, err = m.CheckStuck(recent)
	require.NoError(t, err)
	assert.Nil(t, report)

	// Old record but the document association is gone: a cleared session
	// must never resurrect a stale job.
	cleared := uuid.New()
	require.NoError(t, store.Create(&model.AnalysisJob{
		SessionID: cleared,
		Status:    StatusAnalyzing,
		CreatedAt: time.Now().Add(-time.Hour),
	}))
	report, err = m.CheckStuck(cleared)
	require.NoError(t, err)
	assert.Nil(t, report)

	// Terminal statuses are never stuck.
	done := uuid.New()
	require.NoError(t, store.Create(&model.AnalysisJob{
		SessionID:    done,
		Status:       StatusCompleted,
		DocumentName: "cv.pdf",
		CreatedAt:    time.Now().Add(-time.Hour),
	}))
	report, err = m.CheckStuck(done)
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestNewSubmitCancelsPriorLoop(t *testing.T) {
	store := newFakeJobStore()
	extractor := &fakeExtractor{} // analyzing forever
	m := NewMonitor(store, &fakeSectionDeleter{}, extractor, testConfig())
	sessionID := uuid.New()

	first, err := m.Submit(context.Background(), sessionID, "cv1.pdf", "text")
	require.NoError(t, err)
	second, err := m.Submit(context.Background(), sessionID, "cv2.pdf", "text")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	j := store.get(sessionID)
	require.NotNil(t, j)
	assert.Equal(t, second.ID, j.ID)
	assert.Equal(t, "cv2.pdf", j.DocumentName)
}
