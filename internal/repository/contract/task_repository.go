package contract

import (
	"context"
	"errors"

	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/repository/specification"
)

// ErrTaskNotFound is returned by writes that target a missing row.
var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
	// DeleteOwned removes the task only if ownerId owns it and reports whether a row was deleted.
	DeleteOwned(ctx context.Context, id int64, ownerId string) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error)
	ListByOwner(ctx context.Context, ownerId string) ([]*entity.Task, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MatchSimilar runs the store-side match_tasks function: owner-filtered nearest neighbours
	// with similarity above threshold, at most count rows, best first.
	MatchSimilar(ctx context.Context, embedding []float32, threshold float64, count int, ownerId string) ([]*entity.ScoredTask, error)
}
