package wizard

import "github.com/tidwall/gjson"

// StepDefinition binds a step id to its gating predicate. The payload stays
// opaque to the wizard; predicates only peek at the fields they gate on.
// Adding a step means adding an entry here, nothing else.
type StepDefinition struct {
	ID       string
	Title    string
	Optional bool
	// Validate reports whether the step's payload is complete enough to
	// advance past. Nil means always advanceable.
	Validate func(payload string) bool
}

type Registry struct {
	steps []StepDefinition
	byID  map[string]StepDefinition
}

func NewRegistry(steps ...StepDefinition) *Registry {
	r := &Registry{steps: steps, byID: make(map[string]StepDefinition, len(steps))}
	for _, s := range steps {
		r.byID[s.ID] = s
	}
	return r
}

func (r *Registry) Steps() []StepDefinition {
	out := make([]StepDefinition, len(r.steps))
	copy(out, r.steps)
	return out
}

func (r *Registry) IDs() []string {
	ids := make([]string, len(r.steps))
	for i, s := range r.steps {
		ids[i] = s.ID
	}
	return ids
}

// CanAdvance evaluates the step's predicate. Unknown step ids are optional
// steps and always pass.
func (r *Registry) CanAdvance(stepID, payload string) bool {
	step, ok := r.byID[stepID]
	if !ok || step.Validate == nil {
		return true
	}
	return step.Validate(payload)
}

func nonEmptyString(path string) func(string) bool {
	return func(payload string) bool {
		return gjson.Get(payload, path).String() != ""
	}
}

func nonEmptyArray(path string) func(string) bool {
	return func(payload string) bool {
		v := gjson.Get(payload, path)
		return v.IsArray() && len(v.Array()) > 0
	}
}

// DefaultRegistry is the onboarding wizard's fixed linear step sequence.
func DefaultRegistry() *Registry {
	return NewRegistry(
		StepDefinition{
			ID:       "personal_info",
			Title:    "Personal information",
			Validate: nonEmptyString("full_name"),
		},
		StepDefinition{
			ID:       "cv_upload",
			Title:    "CV upload",
			Optional: true,
		},
		StepDefinition{
			ID:       "work_experience",
			Title:    "Work experience",
			Validate: nonEmptyArray("entries"),
		},
		StepDefinition{
			ID:       "education",
			Title:    "Education",
			Validate: nonEmptyArray("entries"),
		},
		StepDefinition{
			ID:       "skills",
			Title:    "Skills",
			Validate: nonEmptyArray("selected"),
		},
		StepDefinition{
			ID:       "skill_verification",
			Title:    "Skill verification",
			Optional: true,
		},
		StepDefinition{
			ID:       "review",
			Title:    "Review and finish",
			Optional: true,
		},
	)
}
