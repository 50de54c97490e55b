package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"growny-ai-be/internal/dto"
	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/repository/contract"
	"growny-ai-be/internal/repository/specification"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
)

const moduleBackfill = "EMBED_BACKFILL"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
	embedTimeout      time.Duration
}

// NewConsumerService builds the embedding backfill worker. It retries the
// embedding of tasks that were stored without one.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
	embedTimeout time.Duration,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
		embedTimeout:      embedTimeout,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedTaskMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(moduleBackfill, "Failed to unmarshal message", map[string]interface{}{"error": err})
		msg.Ack() // invalid payloads would retry forever
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: payload.TaskId})
	if err != nil {
		cs.logger.Error(moduleBackfill, "Failed to load task", map[string]interface{}{
			"task_id": payload.TaskId,
			"error":   err,
		})
		msg.Nack()
		return
	}
	if task == nil {
		// deleted before we got to it
		msg.Ack()
		return
	}
	if task.HasEmbedding() {
		msg.Ack()
		return
	}

	embedCtx, cancel := withTimeout(ctx, cs.embedTimeout)
	vector, err := embedding.Embed(embedCtx, cs.embeddingProvider, task.Content, embedding.TaskTypeRetrievalDocument, entity.EmbeddingDimensions)
	cancel()
	if err != nil {
		cs.logger.Warn(moduleBackfill, "Embedding still unavailable, giving up on task", map[string]interface{}{
			"task_id": task.Id,
			"error":   err,
		})
		msg.Ack()
		return
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error(moduleBackfill, "Failed to begin transaction", map[string]interface{}{"error": err})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.TaskRepository().UpdateEmbedding(ctx, task.Id, vector); err != nil {
		if errors.Is(err, contract.ErrTaskNotFound) {
			msg.Ack()
			return
		}
		cs.logger.Error(moduleBackfill, "Failed to store embedding", map[string]interface{}{
			"task_id": task.Id,
			"error":   err,
		})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error(moduleBackfill, "Failed to commit transaction", map[string]interface{}{"error": err})
		msg.Nack()
		return
	}

	cs.logger.Info(moduleBackfill, "Task embedding backfilled", map[string]interface{}{"task_id": task.Id})
	msg.Ack()
}
