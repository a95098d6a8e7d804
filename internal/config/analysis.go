package config

import (
	"sync"
	"time"
)

// AnalysisConfig holds the tuning knobs for the CV analysis job monitor.
// The stuck threshold is a heuristic, not an invariant; keep it adjustable.
type AnalysisConfig struct {
	PollInterval     time.Duration
	MaxPollAttempts  int
	FetchBaseDelay   time.Duration
	FetchMaxDelay    time.Duration
	FetchMaxAttempts int
	StuckAfter       time.Duration
}

var (
	analysisConfig *AnalysisConfig
	analysisOnce   sync.Once
)

func LoadAnalysisConfig() *AnalysisConfig {
	analysisOnce.Do(func() {
		analysisConfig = &AnalysisConfig{
			PollInterval:     envDuration("ANALYSIS_POLL_INTERVAL", 2*time.Second),
			MaxPollAttempts:  envInt("ANALYSIS_MAX_POLLS", 45),
			FetchBaseDelay:   envDuration("ANALYSIS_FETCH_BASE_DELAY", 500*time.Millisecond),
			FetchMaxDelay:    envDuration("ANALYSIS_FETCH_MAX_DELAY", 8*time.Second),
			FetchMaxAttempts: envInt("ANALYSIS_FETCH_MAX_ATTEMPTS", 5),
			StuckAfter:       envDuration("ANALYSIS_STUCK_AFTER", 5*time.Minute),
		}
	})
	return analysisConfig
}
