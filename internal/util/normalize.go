package util

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Canonical keys of an extracted profile. Older extraction runs used
// capitalized variants ("Skills", "WorkExperience"); everything is folded
// into this schema right at the service boundary so consumers never branch
// on both shapes.
var extractedKeys = map[string][]string{
	"personal":        {"personal", "Personal", "personalInfo", "PersonalInfo", "personal_info"},
	"summary":         {"summary", "Summary", "professional_summary", "professionalSummary"},
	"work_experience": {"work_experience", "workExperience", "WorkExperience", "experience", "Experience"},
	"education":       {"education", "Education"},
	"skills":          {"skills", "Skills", "skill_list", "skillList"},
	"languages":       {"languages", "Languages"},
	"certifications":  {"certifications", "Certifications", "certificates", "Certificates"},
}

// NormalizeExtracted rewrites raw extraction output into the canonical
// schema. Keys with no value under any known variant are omitted. Returns
// "" when nothing recognizable is present.
func NormalizeExtracted(raw string) string {
	if strings.TrimSpace(raw) == "" || !gjson.Valid(raw) {
		return ""
	}

	out := make(map[string]json.RawMessage, len(extractedKeys))
	for canonical, variants := range extractedKeys {
		for _, key := range variants {
			v := gjson.Get(raw, key)
			if !v.Exists() || isEmptyValue(v) {
				continue
			}
			out[canonical] = json.RawMessage(v.Raw)
			break
		}
	}

	if len(out) == 0 {
		return ""
	}

	b, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(b)
}

func isEmptyValue(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return true
	case gjson.String:
		return strings.TrimSpace(v.String()) == ""
	default:
	}
	if v.IsArray() {
		return len(v.Array()) == 0
	}
	if v.IsObject() {
		return len(v.Map()) == 0
	}
	return false
}
