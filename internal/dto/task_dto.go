package dto

import "time"

type CreateTaskRequest struct {
	Text string `json:"text" label:"Task text" validate:"notblank"`
}

type TaskResponse struct {
	Id           int64     `json:"id"`
	Content      string    `json:"content"`
	RawText      string    `json:"raw_text"`
	Category     string    `json:"category"`
	Priority     string    `json:"priority"`
	DueDate      *string   `json:"due_date"` // YYYY-MM-DD
	CreatedAt    time.Time `json:"created_at"`
	HasEmbedding bool      `json:"has_embedding"`
}

type CreateTaskResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Task    *TaskResponse `json:"task"`
}

type DeleteTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SearchTaskRequest struct {
	Query string `json:"query"`
}

type SearchResultResponse struct {
	Id         int64   `json:"id"`
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Priority   string  `json:"priority"`
	DueDate    *string `json:"due_date"`
	Similarity float64 `json:"similarity"`
}

// PublishEmbedTaskMessage asks the backfill consumer to embed a stored task.
type PublishEmbedTaskMessage struct {
	TaskId int64 `json:"task_id"`
}

type HealthResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
