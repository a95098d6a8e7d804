package config

import (
	"os"
	"sync"
)

type GeminiConfig struct {
	APIKey         string
	QuestionModel  string
	EmbeddingModel string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			QuestionModel:  envString("GEMINI_QUESTION_MODEL", "gemini-2.5-flash"),
			EmbeddingModel: envString("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
		}
	})
	return geminiConfig
}
