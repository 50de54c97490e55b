package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"growny-ai-be/internal/dto"
	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/pkg/classifier"
	"growny-ai-be/pkg/embedding"
	"growny-ai-be/pkg/events"
)

const moduleIngest = "INGEST"

type IIngestionService interface {
	// Ingest classifies, embeds and stores rawText for ownerId. Only a
	// validation or storage failure is returned; upstream AI failures degrade.
	Ingest(ctx context.Context, ownerId string, rawText string) (*entity.Task, error)
}

type IngestionTimeouts struct {
	Classify time.Duration
	Embed    time.Duration
	Store    time.Duration
}

type ingestionService struct {
	uowFactory        unitofwork.RepositoryFactory
	classifier        classifier.Classifier
	embeddingProvider embedding.EmbeddingProvider
	publisherService  IPublisherService
	eventPublisher    events.Publisher
	logger            logger.ILogger
	timeouts          IngestionTimeouts
	now               func() time.Time
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	taskClassifier classifier.Classifier,
	embeddingProvider embedding.EmbeddingProvider,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	log logger.ILogger,
	timeouts IngestionTimeouts,
) IIngestionService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &ingestionService{
		uowFactory:        uowFactory,
		classifier:        taskClassifier,
		embeddingProvider: embeddingProvider,
		publisherService:  publisherService,
		eventPublisher:    eventPublisher,
		logger:            log,
		timeouts:          timeouts,
		now:               time.Now,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, ownerId string, rawText string) (*entity.Task, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, apperror.NewValidation("Task text cannot be empty")
	}

	result := s.classify(ctx, rawText)
	vector := s.embed(ctx, ownerId, result.Summary)

	task := &entity.Task{
		OwnerId:   ownerId,
		RawText:   rawText,
		Content:   result.Summary,
		Category:  result.Category,
		Priority:  result.Priority,
		DueDate:   result.DueDate,
		Embedding: vector,
	}

	storeCtx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(storeCtx)
	if err := uow.TaskRepository().Create(storeCtx, task); err != nil {
		s.logger.Error(moduleIngest, "Failed to save task", map[string]interface{}{
			"owner_id": ownerId,
			"error":    err,
		})
		return nil, apperror.NewStorage("Failed to save task", err)
	}

	s.logger.Info(moduleIngest, "Task saved", map[string]interface{}{
		"task_id":       task.Id,
		"owner_id":      ownerId,
		"category":      task.Category,
		"has_embedding": task.HasEmbedding(),
	})

	if !task.HasEmbedding() {
		s.requestBackfill(ctx, task.Id)
	}

	if err := s.eventPublisher.Publish(ctx, events.NewTaskCreated(task.Id, ownerId, string(task.Category), task.HasEmbedding())); err != nil {
		s.logger.Warn(moduleIngest, "Failed to publish TASK_CREATED event", map[string]interface{}{
			"task_id": task.Id,
			"error":   err,
		})
	}

	return task, nil
}

func (s *ingestionService) classify(ctx context.Context, rawText string) classifier.Classification {
	if s.classifier == nil {
		return classifier.Fallback(rawText)
	}

	classifyCtx, cancel := withTimeout(ctx, s.timeouts.Classify)
	defer cancel()

	result, err := s.classifier.Classify(classifyCtx, rawText, s.now())
	if err != nil {
		s.logger.Warn(moduleIngest, "Classifier unavailable, using fallback", map[string]interface{}{
			"error": apperror.NewUpstreamDegraded("classifier", err),
		})
		return classifier.Fallback(rawText)
	}
	if result == nil || strings.TrimSpace(result.Summary) == "" {
		s.logger.Warn(moduleIngest, "Classifier returned no summary, using fallback", nil)
		return classifier.Fallback(rawText)
	}
	return *result
}

// embed returns nil when no usable vector could be produced.
func (s *ingestionService) embed(ctx context.Context, ownerId, summary string) []float32 {
	embedCtx, cancel := withTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	vector, err := embedding.Embed(embedCtx, s.embeddingProvider, summary, embedding.TaskTypeRetrievalDocument, entity.EmbeddingDimensions)
	if err != nil {
		s.logger.Warn(moduleIngest, "Embedding failed, storing task without vector", map[string]interface{}{
			"owner_id": ownerId,
			"error":    apperror.NewUpstreamDegraded("embedder", err),
		})
		return nil
	}
	return vector
}

func (s *ingestionService) requestBackfill(ctx context.Context, taskId int64) {
	if s.publisherService == nil {
		return
	}

	payload, err := json.Marshal(dto.PublishEmbedTaskMessage{TaskId: taskId})
	if err == nil {
		err = s.publisherService.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn(moduleIngest, "Failed to queue embedding backfill", map[string]interface{}{
			"task_id": taskId,
			"error":   err,
		})
	}
}

// withTimeout leaves ctx untouched when d is not positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
