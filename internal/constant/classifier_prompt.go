package constant

const (
	// TaskClassifierPrompt takes the current date (YYYY-MM-DD) and the raw input.
	TaskClassifierPrompt = `
Current Date: %s
Input: %q

Extract into JSON:
- category: "TASK", "REMINDER", or "NOTE"
- priority: "HIGH", "MEDIUM", or "LOW"
- summary: "Professional one-sentence summary (must not be empty)"
- due_date: "YYYY-MM-DD" or null

Return exactly one JSON object and nothing else.
`
)
