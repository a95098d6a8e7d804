// Package scoring turns assessment responses into a calibrated proficiency
// level. Everything here is pure: the same questions and responses always
// produce the same result.
package scoring

import "math"

// Level ordinals for required proficiency.
const (
	LevelBasic        = 1
	LevelIntermediate = 2
	LevelAdvanced     = 3
)

type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    int      `json:"difficulty"` // 1-3
	TimeLimitSec  int      `json:"time_limit_sec"`
	Weight        float64  `json:"weight"` // 1.0-2.0
}

type Response struct {
	QuestionID     string  `json:"question_id"`
	SelectedAnswer int     `json:"selected_answer"`
	TimeTakenSec   float64 `json:"time_taken_sec"`
	Correct        bool    `json:"correct"`
}

type Result struct {
	Score           float64 `json:"score"` // 0-100 composite
	Level           int     `json:"level"` // 0-3
	Confidence      float64 `json:"confidence"`
	Passed          bool    `json:"passed"`
	Correctness     float64 `json:"correctness"`      // 0-100 weighted fraction correct
	TimeConsistency float64 `json:"time_consistency"` // 0-1
}

// RequiredLevel maps a named level to its ordinal. Unknown names fall back
// to basic rather than blocking the assessment.
func RequiredLevel(name string) int {
	switch name {
	case "intermediate":
		return LevelIntermediate
	case "advanced":
		return LevelAdvanced
	default:
		return LevelBasic
	}
}

// Score computes the composite score, level, confidence and pass verdict for
// one assessment attempt. Responses with no matching question are ignored.
func Score(questions []Question, responses []Response, requiredLevel int, cfg Config) Result {
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var (
		totalWeight   float64
		correctWeight float64
		consistencies []float64
	)
	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			continue
		}
		w := clamp(q.Weight, 1.0, 2.0)
		totalWeight += w
		if r.Correct {
			correctWeight += w
		}
		consistencies = append(consistencies, timeConsistency(q, r, cfg))
	}

	correctness := 0.0
	if totalWeight > 0 {
		correctness = correctWeight / totalWeight * 100
	}

	consistency := cfg.TimeNeutral
	if len(consistencies) > 0 {
		sum := 0.0
		for _, c := range consistencies {
			sum += c
		}
		consistency = sum / float64(len(consistencies))
	}

	// Correctness dominates; time consistency only nudges the composite.
	composite := correctness + (consistency-cfg.TimeNeutral)*2*cfg.TimeBonusMax
	composite = clamp(composite, 0, 100)

	level := levelFor(composite, cfg)
	required := requiredLevel
	if required < LevelBasic {
		required = LevelBasic
	} else if required > LevelAdvanced {
		required = LevelAdvanced
	}

	return Result{
		Score:           composite,
		Level:           level,
		Confidence:      confidence(len(consistencies), cfg),
		Passed:          level >= required,
		Correctness:     correctness,
		TimeConsistency: consistency,
	}
}

// timeConsistency scores one answer's timing against the allotted time.
// Answers inside the plausible band score 1.0; implausibly fast answers
// (relative to difficulty) and slow answers fall off linearly.
func timeConsistency(q Question, r Response, cfg Config) float64 {
	limit := q.TimeLimitSec
	if limit <= 0 {
		limit = cfg.DefaultTimeLimitSec
	}
	difficulty := q.Difficulty
	if difficulty < 1 {
		difficulty = 1
	} else if difficulty > 3 {
		difficulty = 3
	}

	ratio := r.TimeTakenSec / float64(limit)
	fast := cfg.FastBandFloor * float64(difficulty) / 2.0

	switch {
	case ratio < 0:
		return 0
	case ratio < fast:
		return 0.5 * ratio / fast
	case ratio <= 1.0:
		return 1.0
	default:
		slow := 1.0 - 0.5*(ratio-1.0)/(cfg.SlowBandCeil-1.0)
		return clamp(slow, 0, 1)
	}
}

// confidence grows with the amount of evidence and saturates at 1.0 once
// the ideal question count is reached.
func confidence(answered int, cfg Config) float64 {
	ideal := cfg.IdealQuestionCount
	if ideal <= 0 {
		ideal = 1
	}
	frac := float64(answered) / float64(ideal)
	if frac > 1 {
		frac = 1
	}
	return math.Sqrt(frac)
}

func levelFor(score float64, cfg Config) int {
	for level, threshold := range cfg.LevelThresholds {
		if score < threshold {
			return level
		}
	}
	return 3
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
