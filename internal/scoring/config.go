package scoring

// Config holds every tunable constant of the proficiency engine. These
// values are calibration knobs, not invariants.
type Config struct {
	// LevelThresholds maps the composite score to a level: below [0] is
	// level 0, below [1] level 1, below [2] level 2, otherwise level 3.
	LevelThresholds [3]float64

	// TimeBonusMax is the most the time-consistency modifier can move the
	// composite score, in points, in either direction.
	TimeBonusMax float64

	// TimeNeutral is the consistency value that leaves the composite
	// untouched.
	TimeNeutral float64

	// FastBandFloor is the base fraction of the allotted time below which
	// an answer looks like a guess. Scaled up with question difficulty:
	// hard questions answered near-instantly are the least plausible.
	FastBandFloor float64

	// SlowBandCeil is the time ratio at which the slow penalty reaches
	// half strength.
	SlowBandCeil float64

	// IdealQuestionCount is the number of answered questions at which
	// confidence saturates.
	IdealQuestionCount int

	// DefaultTimeLimitSec is used for questions that carry no time limit.
	DefaultTimeLimitSec int
}

func DefaultConfig() Config {
	return Config{
		LevelThresholds:     [3]float64{25, 55, 80},
		TimeBonusMax:        5,
		TimeNeutral:         0.5,
		FastBandFloor:       0.15,
		SlowBandCeil:        1.25,
		IdealQuestionCount:  5,
		DefaultTimeLimitSec: 60,
	}
}
