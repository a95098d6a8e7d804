package wizard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() (*Controller, *fakeSectionStore, *fakeSnapshotStore, *fakeDraftStore) {
	coord, sections, snapshots, drafts := newTestCoordinator()
	sess := NewSession(uuid.New(), DefaultRegistry().IDs())
	return NewController(sess, coord, DefaultRegistry()), sections, snapshots, drafts
}

func TestAdvanceBlockedByValidation(t *testing.T) {
	ctrl, sections, _, _ := newTestController()
	defer ctrl.Close()

	// personal_info requires a full_name.
	err := ctrl.Advance()
	require.ErrorIs(t, err, ErrCannotAdvance)
	assert.Equal(t, 0, ctrl.Session().CurrentIndex())
	assert.Empty(t, sections.writes)

	ctrl.Session().SetPayload("personal_info", `{"full_name":""}`)
	require.ErrorIs(t, ctrl.Advance(), ErrCannotAdvance)
}

func TestAdvanceSealsStepAndMovesOn(t *testing.T) {
	ctrl, sections, snapshots, _ := newTestController()
	defer ctrl.Close()
	ctrl.Session().SetPayload("personal_info", `{"full_name":"Ada"}`)

	require.NoError(t, ctrl.Advance())

	assert.Equal(t, 1, ctrl.Session().CurrentIndex())
	assert.Equal(t, "cv_upload", ctrl.Session().CurrentStepID())
	assert.True(t, ctrl.Session().IsComplete("personal_info"))

	writes := sections.writesFor("personal_info")
	require.Len(t, writes, 1)
	assert.True(t, writes[0].IsComplete)
	assert.NotNil(t, snapshots.snap)
	assert.Equal(t, 1, snapshots.snap.StepIndex)
}

func TestAdvanceSaveFailureDegradesToNotice(t *testing.T) {
	ctrl, sections, _, drafts := newTestController()
	defer ctrl.Close()
	sections.failFor["personal_info"] = true
	ctrl.Session().SetPayload("personal_info", `{"full_name":"Ada"}`)

	// Navigation still proceeds; the failure surfaces as a soft notice and
	// the payload lands in the draft cache.
	require.NoError(t, ctrl.Advance())
	assert.Equal(t, 1, ctrl.Session().CurrentIndex())

	notices := ctrl.DrainNotices()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "saved locally")
	assert.Empty(t, ctrl.DrainNotices())

	require.NotNil(t, drafts.get())
	assert.Contains(t, drafts.get().Payloads, "personal_info")
}

func TestOptionalStepAdvancesEmpty(t *testing.T) {
	ctrl, _, _, _ := newTestController()
	defer ctrl.Close()
	ctrl.Session().setIndex(1) // cv_upload

	assert.True(t, ctrl.CanAdvance())
	require.NoError(t, ctrl.Advance())
	assert.Equal(t, "work_experience", ctrl.Session().CurrentStepID())
}

func TestBackNeverBlocked(t *testing.T) {
	ctrl, _, snapshots, _ := newTestController()
	defer ctrl.Close()
	ctrl.Session().setIndex(2)

	ctrl.Back()
	assert.Equal(t, 1, ctrl.Session().CurrentIndex())
	assert.Equal(t, 1, snapshots.snap.StepIndex)

	ctrl.Session().setIndex(0)
	ctrl.Back()
	assert.Equal(t, 0, ctrl.Session().CurrentIndex())
}

func TestJumpToRules(t *testing.T) {
	ctrl, _, _, _ := newTestController()
	defer ctrl.Close()
	ctrl.Session().setIndex(3)

	require.NoError(t, ctrl.JumpTo("personal_info"))
	assert.Equal(t, 0, ctrl.Session().CurrentIndex())

	ctrl.Session().setIndex(3)
	require.ErrorIs(t, ctrl.JumpTo("review"), ErrSkipAhead)
	require.ErrorIs(t, ctrl.JumpTo("nope"), ErrUnknownStep)
	require.NoError(t, ctrl.JumpTo("education"))
	assert.Equal(t, 3, ctrl.Session().CurrentIndex())
}

func TestAdvanceOnLastStepFinishes(t *testing.T) {
	ctrl, _, snapshots, drafts := newTestController()
	defer ctrl.Close()
	sess := ctrl.Session()
	sess.SetPayload("personal_info", `{"full_name":"Ada"}`)
	sess.setIndex(len(sess.StepIDs()) - 1)

	require.NoError(t, ctrl.Advance())
	assert.True(t, sess.Finished())
	assert.Nil(t, snapshots.snap)
	assert.Nil(t, drafts.get())
}

func TestApplyExtractedLandsInAnalysisStep(t *testing.T) {
	ctrl, sections, _, _ := newTestController()
	defer ctrl.Close()

	ctrl.ApplyExtracted(`{"skills":["go"],"work_experience":[]}`)
	assert.Equal(t, `{"skills":["go"],"work_experience":[]}`, ctrl.Session().Payload("cv_analysis"))

	require.Eventually(t, func() bool {
		return len(sections.writesFor("cv_analysis")) == 1
	}, time.Second, time.Millisecond)

	// Empty results are ignored rather than clobbering prior data.
	ctrl.ApplyExtracted("")
	assert.NotEmpty(t, ctrl.Session().Payload("cv_analysis"))
}

func TestResetToUploadRewindsAndClears(t *testing.T) {
	ctrl, _, _, _ := newTestController()
	defer ctrl.Close()
	sess := ctrl.Session()
	sess.SetPayload("cv_analysis", `{"skills":["go"]}`)
	sess.setIndex(4)

	ctrl.ResetToUpload()
	assert.Empty(t, sess.Payload("cv_analysis"))
	assert.Equal(t, "cv_upload", sess.CurrentStepID())

	// Already at or before the upload step: position holds.
	sess.setIndex(0)
	ctrl.ResetToUpload()
	assert.Equal(t, 0, sess.CurrentIndex())
}

func TestManagerReusesRuntimeUntilRelease(t *testing.T) {
	built := 0
	mgr := NewManager(func(sessionID uuid.UUID) (*Runtime, error) {
		built++
		coord, _, _, _ := newTestCoordinator()
		sess := NewSession(sessionID, DefaultRegistry().IDs())
		return &Runtime{
			Controller:  NewController(sess, coord, DefaultRegistry()),
			Coordinator: coord,
		}, nil
	})

	id := uuid.New()
	first, err := mgr.Acquire(id)
	require.NoError(t, err)
	second, err := mgr.Acquire(id)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)

	mgr.Release(id)
	third, err := mgr.Acquire(id)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, built)

	_, err = mgr.Acquire(uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
