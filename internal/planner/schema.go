package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

// ResponseSchema is the JSON Schema every generation response must satisfy.
// It is also handed to the model as its structured-output schema.
const ResponseSchema = `{
  "type": "object",
  "properties": {
    "dailySchedules": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "date": {"type": "string"},
          "tasks": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "id": {"type": "string"},
                "subject": {"type": "string"},
                "topic": {"type": "string"},
                "duration": {"type": "integer", "minimum": 0},
                "sessions": {"type": "integer", "minimum": 0},
                "bestTime": {"type": "string"},
                "type": {"type": "string", "enum": ["study", "revision", "review", "buffer"]},
                "status": {"type": "string", "enum": ["pending", "completed", "missed"]}
              },
              "required": ["id", "subject", "topic", "sessions", "type", "bestTime"]
            }
          }
        },
        "required": ["date", "tasks"]
      }
    },
    "recommendation": {"type": "string", "minLength": 1},
    "burnoutWarning": {"type": "string"}
  },
  "required": ["dailySchedules", "recommendation"]
}`

var responseSchema = mustCompileSchema(ResponseSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile response schema: %v", err))
	}
	return s
}

// response mirrors the generator output before the streak is injected.
type response struct {
	DailySchedules []plan.DailySchedule `json:"dailySchedules"`
	Recommendation string               `json:"recommendation"`
	BurnoutWarning string               `json:"burnoutWarning,omitempty"`
}

// ParseResponse validates raw generator output and converts it into a plan
// with a zero streak. Missing content is ErrEmptyResponse; content that
// fails the schema is ErrMalformedPlan. Nothing is patched except that an
// absent task status becomes pending.
func ParseResponse(raw string) (plan.Plan, error) {
	body := stripCodeFence(raw)
	if body == "" || body == "null" {
		return plan.Plan{}, plan.ErrEmptyResponse
	}
	if !json.Valid([]byte(body)) {
		return plan.Plan{}, fmt.Errorf("%w: response is not JSON", plan.ErrEmptyResponse)
	}

	result, err := responseSchema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return plan.Plan{}, fmt.Errorf("%w: %v", plan.ErrMalformedPlan, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return plan.Plan{}, fmt.Errorf("%w: %s", plan.ErrMalformedPlan, strings.Join(msgs, "; "))
	}

	var resp response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return plan.Plan{}, fmt.Errorf("%w: %v", plan.ErrMalformedPlan, err)
	}

	p := plan.Plan{
		DailySchedules: resp.DailySchedules,
		Recommendation: resp.Recommendation,
		BurnoutWarning: resp.BurnoutWarning,
	}
	if p.DailySchedules == nil {
		p.DailySchedules = []plan.DailySchedule{}
	}
	for i := range p.DailySchedules {
		tasks := p.DailySchedules[i].Tasks
		if tasks == nil {
			p.DailySchedules[i].Tasks = []plan.Task{}
		}
		for j := range tasks {
			if tasks[j].Status == "" {
				tasks[j].Status = plan.StatusPending
			}
		}
	}
	return p, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit even in JSON mode.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
