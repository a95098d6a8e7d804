package config

import (
	"sync"
	"time"
)

type WizardConfig struct {
	// Debounce is the quiet period before a step edit is written remotely.
	Debounce time.Duration
	// DraftDir is where local draft snapshots are kept as a fallback.
	DraftDir string
	// DraftTTL is how long a local draft stays restorable.
	DraftTTL time.Duration
}

var (
	wizardConfig *WizardConfig
	wizardOnce   sync.Once
)

func LoadWizardConfig() *WizardConfig {
	wizardOnce.Do(func() {
		wizardConfig = &WizardConfig{
			Debounce: envDuration("WIZARD_DEBOUNCE", 2*time.Second),
			DraftDir: envString("DRAFT_CACHE_DIR", "./drafts"),
			DraftTTL: envDuration("DRAFT_TTL", 72*time.Hour),
		}
	})
	return wizardConfig
}
