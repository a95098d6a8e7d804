package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestNormalizeExtractedFoldsVariants(t *testing.T) {
	raw := `{
		"WorkExperience": [{"company":"acme","role":"dev"}],
		"Skills": ["go","sql"],
		"personal": {"full_name":"Ada"},
		"Education": []
	}`

	got := NormalizeExtracted(raw)
	assert.True(t, gjson.Valid(got))
	assert.Equal(t, "acme", gjson.Get(got, "work_experience.0.company").String())
	assert.Equal(t, "go", gjson.Get(got, "skills.0").String())
	assert.Equal(t, "Ada", gjson.Get(got, "personal.full_name").String())
	// Empty arrays are dropped, and the variant spellings do not survive.
	assert.False(t, gjson.Get(got, "education").Exists())
	assert.False(t, gjson.Get(got, "WorkExperience").Exists())
	assert.False(t, gjson.Get(got, "Skills").Exists())
}

func TestNormalizeExtractedPrefersCanonicalKey(t *testing.T) {
	raw := `{"work_experience":[{"company":"new"}],"WorkExperience":[{"company":"old"}]}`
	got := NormalizeExtracted(raw)
	assert.Equal(t, "new", gjson.Get(got, "work_experience.0.company").String())
}

func TestNormalizeExtractedEmptyInputs(t *testing.T) {
	assert.Empty(t, NormalizeExtracted(""))
	assert.Empty(t, NormalizeExtracted("   "))
	assert.Empty(t, NormalizeExtracted("not json at all {{"))
	assert.Empty(t, NormalizeExtracted(`{"unrelated":"stuff"}`))
	assert.Empty(t, NormalizeExtracted(`{"skills":[],"summary":"  ","personal":null}`))
}
