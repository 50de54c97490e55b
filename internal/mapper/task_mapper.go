package mapper

import (
	"time"

	"growny-ai-be/internal/dto"
	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/model"
	"growny-ai-be/pkg/search"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TaskMapper struct{}

func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

func (m *TaskMapper) ToEntity(t *model.Task) *entity.Task {
	if t == nil {
		return nil
	}

	var dueDate *time.Time
	if t.DueDate != nil {
		d := time.Time(*t.DueDate)
		dueDate = &d
	}

	var embedding []float32
	if t.Embedding != nil {
		embedding = t.Embedding.Slice()
	}

	return &entity.Task{
		Id:        t.Id,
		OwnerId:   t.OwnerId,
		RawText:   t.RawText,
		Content:   t.Content,
		Category:  entity.Category(t.Category),
		Priority:  entity.Priority(t.Priority),
		DueDate:   dueDate,
		Embedding: embedding,
		CreatedAt: t.CreatedAt,
	}
}

func (m *TaskMapper) ToModel(t *entity.Task) *model.Task {
	if t == nil {
		return nil
	}

	var dueDate *datatypes.Date
	if t.DueDate != nil {
		d := datatypes.Date(*t.DueDate)
		dueDate = &d
	}

	// absent stays NULL, never a zero vector
	var embedding *pgvector.Vector
	if len(t.Embedding) > 0 {
		v := pgvector.NewVector(t.Embedding)
		embedding = &v
	}

	return &model.Task{
		Id:        t.Id,
		OwnerId:   t.OwnerId,
		RawText:   t.RawText,
		Content:   t.Content,
		Category:  string(t.Category),
		Priority:  string(t.Priority),
		DueDate:   dueDate,
		Embedding: embedding,
		CreatedAt: t.CreatedAt,
	}
}

func (m *TaskMapper) ToEntities(tasks []*model.Task) []*entity.Task {
	entities := make([]*entity.Task, len(tasks))
	for i, t := range tasks {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

func (m *TaskMapper) ToScoredEntities(rows []*model.ScoredTask) []*entity.ScoredTask {
	scored := make([]*entity.ScoredTask, len(rows))
	for i, r := range rows {
		scored[i] = &entity.ScoredTask{
			Task:       m.ToEntity(&r.Task),
			Similarity: r.Similarity,
		}
	}
	return scored
}

func (m *TaskMapper) ToTaskResponse(t *entity.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		Id:           t.Id,
		Content:      t.Content,
		RawText:      t.RawText,
		Category:     string(t.Category),
		Priority:     string(t.Priority),
		DueDate:      formatDueDate(t.DueDate),
		CreatedAt:    t.CreatedAt,
		HasEmbedding: t.HasEmbedding(),
	}
}

func (m *TaskMapper) ToTaskResponses(tasks []*entity.Task) []*dto.TaskResponse {
	out := make([]*dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = m.ToTaskResponse(t)
	}
	return out
}

func (m *TaskMapper) ToSearchResults(hits []search.Hit) []*dto.SearchResultResponse {
	out := make([]*dto.SearchResultResponse, len(hits))
	for i, h := range hits {
		out[i] = &dto.SearchResultResponse{
			Id:         h.Task.Id,
			Content:    h.Task.Content,
			Category:   string(h.Task.Category),
			Priority:   string(h.Task.Priority),
			DueDate:    formatDueDate(h.Task.DueDate),
			Similarity: h.Similarity,
		}
	}
	return out
}

func formatDueDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(entity.DueDateLayout)
	return &s
}
