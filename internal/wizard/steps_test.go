package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepGating(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name    string
		stepID  string
		payload string
		want    bool
	}{
		{"personal info needs a name", "personal_info", `{"email":"a@b.c"}`, false},
		{"personal info empty name", "personal_info", `{"full_name":""}`, false},
		{"personal info filled", "personal_info", `{"full_name":"Ada"}`, true},
		{"personal info garbage payload", "personal_info", `not json`, false},
		{"cv upload is optional", "cv_upload", ``, true},
		{"work experience empty list", "work_experience", `{"entries":[]}`, false},
		{"work experience filled", "work_experience", `{"entries":[{"company":"acme"}]}`, true},
		{"work experience wrong shape", "work_experience", `{"entries":"acme"}`, false},
		{"education filled", "education", `{"entries":[{"school":"x"}]}`, true},
		{"skills empty", "skills", `{"selected":[]}`, false},
		{"skills filled", "skills", `{"selected":["go"]}`, true},
		{"verification is optional", "skill_verification", ``, true},
		{"review is optional", "review", ``, true},
		{"unknown step passes", "something_new", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CanAdvance(tt.stepID, tt.payload))
		})
	}
}

func TestRegistryIDsKeepOrder(t *testing.T) {
	assert.Equal(t, []string{
		"personal_info",
		"cv_upload",
		"work_experience",
		"education",
		"skills",
		"skill_verification",
		"review",
	}, DefaultRegistry().IDs())
}
