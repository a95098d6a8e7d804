package config

import (
	"os"
	"sync"
	"time"
)

type ExtractorConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

var (
	extractorConfig *ExtractorConfig
	extractorOnce   sync.Once
)

func LoadExtractorConfig() *ExtractorConfig {
	extractorOnce.Do(func() {
		extractorConfig = &ExtractorConfig{
			BaseURL:        os.Getenv("EXTRACTOR_BASE_URL"),
			APIKey:         os.Getenv("EXTRACTOR_API_KEY"),
			RequestTimeout: envDuration("EXTRACTOR_TIMEOUT", 30*time.Second),
		}
	})
	return extractorConfig
}
