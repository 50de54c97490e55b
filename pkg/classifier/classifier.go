package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"growny-ai-be/internal/constant"
	"growny-ai-be/internal/entity"
	"growny-ai-be/pkg/llm"
)

var (
	ErrNoJSON    = errors.New("classifier: no JSON object in response")
	ErrNoSummary = errors.New("classifier: empty summary")
)

// Classification is the structured record extracted from free text.
type Classification struct {
	Category entity.Category
	Priority entity.Priority
	Summary  string
	DueDate  *time.Time
}

// Fallback is what a task gets when classification is unavailable.
func Fallback(rawText string) Classification {
	return Classification{
		Category: entity.CategoryNote,
		Priority: entity.PriorityMedium,
		Summary:  rawText,
	}
}

type Classifier interface {
	Classify(ctx context.Context, text string, now time.Time) (*Classification, error)
}

type llmClassifier struct {
	provider llm.LLMProvider
}

func NewClassifier(provider llm.LLMProvider) Classifier {
	return &llmClassifier{provider: provider}
}

func (c *llmClassifier) Classify(ctx context.Context, text string, now time.Time) (*Classification, error) {
	prompt := fmt.Sprintf(constant.TaskClassifierPrompt, now.Format(entity.DueDateLayout), text)

	response, err := c.provider.Generate(ctx, prompt, llm.WithTemperature(0.2), llm.WithJSONResponse())
	if err != nil {
		return nil, fmt.Errorf("classifier: generate: %w", err)
	}

	return Parse(response)
}

type rawClassification struct {
	Category interface{} `json:"category"`
	Priority interface{} `json:"priority"`
	Summary  interface{} `json:"summary"`
	DueDate  interface{} `json:"due_date"`
}

// Parse extracts the first balanced JSON object from a model response.
// Unknown category or priority values fall back to NOTE and MEDIUM, and an
// unparseable due date is dropped. A missing or blank summary is an error.
func Parse(response string) (*Classification, error) {
	span, ok := ExtractJSONObject(response)
	if !ok {
		return nil, ErrNoJSON
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, fmt.Errorf("classifier: decode: %w", err)
	}

	summary := strings.TrimSpace(asString(raw.Summary))
	if summary == "" {
		return nil, ErrNoSummary
	}

	category, _ := entity.ParseCategory(asString(raw.Category))
	priority, _ := entity.ParsePriority(asString(raw.Priority))

	result := &Classification{
		Category: category,
		Priority: priority,
		Summary:  summary,
	}

	if due := strings.TrimSpace(asString(raw.DueDate)); due != "" {
		if t, err := time.Parse(entity.DueDateLayout, due); err == nil {
			result.DueDate = &t
		}
	}

	return result, nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// ExtractJSONObject returns the first balanced {...} span in s.
// Braces inside JSON string literals are ignored.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
