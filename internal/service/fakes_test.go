package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/repository/contract"
	"growny-ai-be/internal/repository/specification"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/pkg/classifier"
	"growny-ai-be/pkg/embedding"
	"growny-ai-be/pkg/events"
)

var errStoreDown = errors.New("connection refused")

// memTaskRepo evaluates the task specifications in memory.
type memTaskRepo struct {
	mu     sync.Mutex
	tasks  []*entity.Task
	nextID int64

	createErr error
	findErr   error
	listErr   error
	deleteErr error
	updateErr error

	matches  []*entity.ScoredTask
	matchErr error

	createCalls int
	findCalls   int
	matchCalls  int
}

func newMemTaskRepo(tasks ...*entity.Task) *memTaskRepo {
	r := &memTaskRepo{nextID: 1}
	for _, t := range tasks {
		if t.Id >= r.nextID {
			r.nextID = t.Id + 1
		}
		r.tasks = append(r.tasks, t)
	}
	return r
}

func (r *memTaskRepo) Create(_ context.Context, task *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	task.Id = r.nextID
	r.nextID++
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	stored := *task
	r.tasks = append(r.tasks, &stored)
	return nil
}

func (r *memTaskRepo) UpdateEmbedding(_ context.Context, id int64, vector []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, t := range r.tasks {
		if t.Id == id {
			t.Embedding = vector
			return nil
		}
	}
	return contract.ErrTaskNotFound
}

func (r *memTaskRepo) DeleteOwned(_ context.Context, id int64, ownerId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	for i, t := range r.tasks {
		if t.Id == id && t.OwnerId == ownerId {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memTaskRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memTaskRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}

	var out []*entity.Task
	for _, t := range r.tasks {
		if ok, omitVector := matches(t, specs); ok {
			c := *t
			if omitVector {
				c.Embedding = nil
			}
			out = append(out, &c)
		}
	}
	return out, nil
}

func matches(t *entity.Task, specs []specification.Specification) (bool, bool) {
	omitVector := false
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OwnedBy:
			if t.OwnerId != s.OwnerID {
				return false, false
			}
		case specification.ContentContains:
			if !containsFold(t.Content, s.Query) {
				return false, false
			}
		case specification.RawTextContains:
			if !containsFold(t.RawText, s.Query) {
				return false, false
			}
		case specification.ByID:
			if t.Id != s.ID {
				return false, false
			}
		case specification.HasEmbedding:
			if !t.HasEmbedding() {
				return false, false
			}
		case specification.WithoutEmbedding:
			omitVector = true
		}
	}
	return true, omitVector
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *memTaskRepo) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Task, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out, err := r.FindAll(ctx, specification.OwnedBy{OwnerID: ownerId})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Id > out[j].Id
	})
	return out, nil
}

func (r *memTaskRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	out, err := r.FindAll(ctx, specs...)
	return int64(len(out)), err
}

func (r *memTaskRepo) MatchSimilar(_ context.Context, _ []float32, threshold float64, count int, ownerId string) ([]*entity.ScoredTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchCalls++
	if r.matchErr != nil {
		return nil, r.matchErr
	}
	var out []*entity.ScoredTask
	for _, m := range r.matches {
		if m.Task.OwnerId == ownerId && m.Similarity > threshold && len(out) < count {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memTaskRepo) byID(id int64) *entity.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.Id == id {
			c := *t
			return &c
		}
	}
	return nil
}

type fakeUnitOfWork struct {
	repo      *memTaskRepo
	began     bool
	committed bool
}

func (u *fakeUnitOfWork) Begin(context.Context) error {
	u.began = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error { return nil }

func (u *fakeUnitOfWork) TaskRepository() contract.TaskRepository { return u.repo }

type fakeFactory struct {
	repo *memTaskRepo
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

type fakeEmbedder struct {
	mu        sync.Mutex
	values    []float32
	err       error
	taskTypes []string
	texts     []string
}

func (e *fakeEmbedder) Generate(_ context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	e.taskTypes = append(e.taskTypes, taskType)
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: e.values}}, nil
}

func vector(fill float32) []float32 {
	v := make([]float32, entity.EmbeddingDimensions)
	for i := range v {
		v[i] = fill
	}
	return v
}

type fakeClassifier struct {
	result *classifier.Classification
	err    error
	calls  int
}

func (c *fakeClassifier) Classify(context.Context, string, time.Time) (*classifier.Classification, error) {
	c.calls++
	return c.result, c.err
}

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

type fakeEventPublisher struct {
	events []events.Event
	err    error
}

func (p *fakeEventPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}
