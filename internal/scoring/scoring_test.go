package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiveQuestions builds a 5-question set with unit weights and 60s limits.
func fiveQuestions() []Question {
	qs := make([]Question, 5)
	for i := range qs {
		qs[i] = Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Difficulty:   2,
			TimeLimitSec: 60,
			Weight:       1.0,
		}
	}
	return qs
}

// plausible returns a response answered comfortably inside the time band.
func plausible(qid string, correct bool) Response {
	return Response{QuestionID: qid, TimeTakenSec: 30, Correct: correct}
}

func TestScoreFourOfFiveCorrectReachesAdvanced(t *testing.T) {
	qs := fiveQuestions()
	rs := []Response{
		plausible("q1", true),
		plausible("q2", true),
		plausible("q3", true),
		plausible("q4", true),
		plausible("q5", false),
	}

	res := Score(qs, rs, LevelAdvanced, DefaultConfig())

	assert.InDelta(t, 80.0, res.Correctness, 0.001)
	assert.GreaterOrEqual(t, res.Score, 80.0)
	assert.Equal(t, 3, res.Level)
	assert.True(t, res.Passed)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
}

func TestScoreWeightedCorrectness(t *testing.T) {
	qs := fiveQuestions()
	qs[4].Weight = 2.0 // total weight 6

	// Miss the weighted question: 4 of 6 correct by weight.
	rs := []Response{
		plausible("q1", true),
		plausible("q2", true),
		plausible("q3", true),
		plausible("q4", true),
		plausible("q5", false),
	}

	res := Score(qs, rs, LevelBasic, DefaultConfig())
	assert.InDelta(t, 100.0*4.0/6.0, res.Correctness, 0.001)
}

func TestScoreDeterministic(t *testing.T) {
	qs := fiveQuestions()
	rs := []Response{
		{QuestionID: "q1", TimeTakenSec: 3, Correct: true},
		{QuestionID: "q2", TimeTakenSec: 58, Correct: false},
		{QuestionID: "q3", TimeTakenSec: 90, Correct: true},
	}

	first := Score(qs, rs, LevelIntermediate, DefaultConfig())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(qs, rs, LevelIntermediate, DefaultConfig()))
	}
}

func TestScoreLevels(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		correct int
		level   int
	}{
		{0, 0}, // composite 5 with the full time bonus
		{1, 1}, // 25
		{2, 1}, // 45
		{3, 2}, // 65
		{4, 3}, // 85
		{5, 3}, // 100
	}
	for _, tt := range tests {
		qs := fiveQuestions()
		var rs []Response
		for i := 0; i < 5; i++ {
			rs = append(rs, plausible(qs[i].ID, i < tt.correct))
		}
		res := Score(qs, rs, LevelBasic, cfg)
		assert.Equal(t, tt.level, res.Level, "correct=%d score=%.1f", tt.correct, res.Score)
	}
}

func TestScorePassedAgainstRequiredLevel(t *testing.T) {
	qs := fiveQuestions()
	var rs []Response
	for _, q := range qs[:3] {
		rs = append(rs, plausible(q.ID, true))
	}
	rs = append(rs, plausible("q4", false), plausible("q5", false))

	// 60% correct lands at level 2.
	res := Score(qs, rs, LevelIntermediate, DefaultConfig())
	assert.Equal(t, 2, res.Level)
	assert.True(t, res.Passed)

	res = Score(qs, rs, LevelAdvanced, DefaultConfig())
	assert.False(t, res.Passed)
}

func TestTimeConsistencyPenalizesGuessingAndStalling(t *testing.T) {
	cfg := DefaultConfig()
	q := Question{ID: "q", Difficulty: 3, TimeLimitSec: 60, Weight: 1}

	instant := timeConsistency(q, Response{QuestionID: "q", TimeTakenSec: 0.5}, cfg)
	comfortable := timeConsistency(q, Response{QuestionID: "q", TimeTakenSec: 40}, cfg)
	overtime := timeConsistency(q, Response{QuestionID: "q", TimeTakenSec: 120}, cfg)

	assert.Less(t, instant, comfortable)
	assert.Less(t, overtime, comfortable)
	assert.Equal(t, 1.0, comfortable)
}

func TestTimeConsistencyScalesWithDifficulty(t *testing.T) {
	cfg := DefaultConfig()
	resp := Response{QuestionID: "q", TimeTakenSec: 5}

	easy := timeConsistency(Question{ID: "q", Difficulty: 1, TimeLimitSec: 60}, resp, cfg)
	hard := timeConsistency(Question{ID: "q", Difficulty: 3, TimeLimitSec: 60}, resp, cfg)

	// Five seconds is plausible for an easy question, suspicious for a hard one.
	assert.Greater(t, easy, hard)
}

func TestConfidenceMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	prev := -1.0
	for n := 0; n <= 8; n++ {
		c := confidence(n, cfg)
		assert.GreaterOrEqual(t, c, prev, "n=%d", n)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
	assert.Equal(t, 1.0, confidence(cfg.IdealQuestionCount, cfg))
}

func TestScoreIgnoresUnknownResponses(t *testing.T) {
	qs := fiveQuestions()[:2]
	rs := []Response{
		plausible("q1", true),
		plausible("q2", true),
		plausible("ghost", false), // no matching question
	}

	res := Score(qs, rs, LevelBasic, DefaultConfig())
	assert.InDelta(t, 100.0, res.Correctness, 0.001)
}

func TestScoreEmptyResponses(t *testing.T) {
	res := Score(fiveQuestions(), nil, LevelBasic, DefaultConfig())
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 0, res.Level)
	assert.Equal(t, 0.0, res.Confidence)
	assert.False(t, res.Passed)
}

func TestRequiredLevel(t *testing.T) {
	assert.Equal(t, LevelBasic, RequiredLevel("basic"))
	assert.Equal(t, LevelIntermediate, RequiredLevel("intermediate"))
	assert.Equal(t, LevelAdvanced, RequiredLevel("advanced"))
	assert.Equal(t, LevelBasic, RequiredLevel("unknown"))
}

func TestScoreCompositeBoundedAfterBonus(t *testing.T) {
	qs := fiveQuestions()
	var rs []Response
	for _, q := range qs {
		rs = append(rs, plausible(q.ID, true))
	}

	res := Score(qs, rs, LevelAdvanced, DefaultConfig())
	require.LessOrEqual(t, res.Score, 100.0)
	assert.Equal(t, 3, res.Level)
}
