package service

import (
	"context"
	"strconv"
	"time"

	"growny-ai-be/internal/dto"
	"growny-ai-be/internal/mapper"
	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/pkg/events"
)

const moduleTask = "TASK"

type ITaskService interface {
	Create(ctx context.Context, ownerId string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error)
	List(ctx context.Context, ownerId string) ([]*dto.TaskResponse, error)
	Delete(ctx context.Context, ownerId string, id string) error
	Search(ctx context.Context, ownerId string, req *dto.SearchTaskRequest) ([]*dto.SearchResultResponse, error)
}

type taskService struct {
	uowFactory       unitofwork.RepositoryFactory
	ingestionService IIngestionService
	searchService    ISearchService
	eventPublisher   events.Publisher
	logger           logger.ILogger
	storeTimeout     time.Duration
	mapper           *mapper.TaskMapper
}

func NewTaskService(
	uowFactory unitofwork.RepositoryFactory,
	ingestionService IIngestionService,
	searchService ISearchService,
	eventPublisher events.Publisher,
	log logger.ILogger,
	storeTimeout time.Duration,
) ITaskService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &taskService{
		uowFactory:       uowFactory,
		ingestionService: ingestionService,
		searchService:    searchService,
		eventPublisher:   eventPublisher,
		logger:           log,
		storeTimeout:     storeTimeout,
		mapper:           mapper.NewTaskMapper(),
	}
}

func (s *taskService) Create(ctx context.Context, ownerId string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error) {
	task, err := s.ingestionService.Ingest(ctx, ownerId, req.Text)
	if err != nil {
		return nil, err
	}

	return &dto.CreateTaskResponse{
		Success: true,
		Message: "Task saved successfully",
		Task:    s.mapper.ToTaskResponse(task),
	}, nil
}

func (s *taskService) List(ctx context.Context, ownerId string) ([]*dto.TaskResponse, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	tasks, err := uow.TaskRepository().ListByOwner(ctx, ownerId)
	if err != nil {
		s.logger.Error(moduleTask, "Failed to fetch tasks", map[string]interface{}{
			"owner_id": ownerId,
			"error":    err,
		})
		return nil, apperror.NewStorage("Failed to fetch tasks", err)
	}

	return s.mapper.ToTaskResponses(tasks), nil
}

func (s *taskService) Delete(ctx context.Context, ownerId string, id string) error {
	taskId, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return apperror.NewNotFound("Task not found")
	}

	storeCtx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(storeCtx)
	deleted, err := uow.TaskRepository().DeleteOwned(storeCtx, taskId, ownerId)
	if err != nil {
		s.logger.Error(moduleTask, "Failed to delete task", map[string]interface{}{
			"task_id":  taskId,
			"owner_id": ownerId,
			"error":    err,
		})
		return apperror.NewStorage("Failed to delete task", err)
	}
	if !deleted {
		return apperror.NewNotFound("Task not found")
	}

	s.logger.Info(moduleTask, "Task deleted", map[string]interface{}{
		"task_id":  taskId,
		"owner_id": ownerId,
	})

	if err := s.eventPublisher.Publish(ctx, events.NewTaskDeleted(taskId, ownerId)); err != nil {
		s.logger.Warn(moduleTask, "Failed to publish TASK_DELETED event", map[string]interface{}{
			"task_id": taskId,
			"error":   err,
		})
	}

	return nil
}

func (s *taskService) Search(ctx context.Context, ownerId string, req *dto.SearchTaskRequest) ([]*dto.SearchResultResponse, error) {
	hits, err := s.searchService.Search(ctx, ownerId, req.Query)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToSearchResults(hits), nil
}
