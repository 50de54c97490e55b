package implementation

import (
	"context"
	"errors"

	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/mapper"
	"growny-ai-be/internal/model"
	"growny-ai-be/internal/repository/contract"
	"growny-ai-be/internal/repository/scope"
	"growny-ai-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TaskRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TaskMapper
}

func NewTaskRepository(db *gorm.DB) contract.TaskRepository {
	return &TaskRepositoryImpl{
		db:     db,
		mapper: mapper.NewTaskMapper(),
	}
}

func (r *TaskRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entity.Task) error {
	m := r.mapper.ToModel(task)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*task = *r.mapper.ToEntity(m)
	return nil
}

func (r *TaskRepositoryImpl) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	vector := pgvector.NewVector(embedding)
	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Update("embedding", &vector)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) DeleteOwned(ctx context.Context, id int64, ownerId string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerId).
		Delete(&model.Task{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TaskRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error) {
	var m model.Task
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TaskRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	var models []*model.Task
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TaskRepositoryImpl) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Task, error) {
	var models []*model.Task
	err := r.db.WithContext(ctx).
		Scopes(scope.NewestFirst).
		Where("owner_id = ?", ownerId).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TaskRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Task{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TaskRepositoryImpl) MatchSimilar(ctx context.Context, embedding []float32, threshold float64, count int, ownerId string) ([]*entity.ScoredTask, error) {
	if count <= 0 {
		count = 20
	}

	// match_tasks computes 1 - (embedding <=> query) and skips rows without an embedding.
	// See cmd/migrate for its definition.
	var rows []*model.ScoredTask
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, owner_id, raw_text, content, category, priority, due_date, created_at, similarity
			FROM match_tasks(?, ?, ?, ?)`,
			pgvector.NewVector(embedding), threshold, count, ownerId).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.mapper.ToScoredEntities(rows), nil
}
