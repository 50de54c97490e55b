package service

import (
	"context"
	"time"

	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/repository/specification"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/internal/tracer"
	"growny-ai-be/pkg/embedding"
	"growny-ai-be/pkg/search"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const moduleSearch = "SEARCH"

type ISearchService interface {
	// Search returns at most ResultLimit hits for ownerId, best first.
	Search(ctx context.Context, ownerId string, query string) ([]search.Hit, error)
}

type SearchOptions struct {
	MatchThreshold float64
	MatchCount     int
	ResultLimit    int
	StoreTimeout   time.Duration
	EmbedTimeout   time.Duration
}

type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
	options           SearchOptions
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
	options SearchOptions,
) ISearchService {
	if options.MatchCount <= 0 {
		options.MatchCount = 20
	}
	if options.ResultLimit <= 0 {
		options.ResultLimit = 20
	}
	return &searchService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
		options:           options,
	}
}

// passResults holds what each pass found. Passes run concurrently but are
// merged in this field order so text scores are set before vector scores.
type passResults struct {
	content []*entity.Task
	rawText []*entity.Task
	words   [][]*entity.Task
	vector  []*entity.ScoredTask
}

func (s *searchService) Search(ctx context.Context, ownerId string, query string) ([]search.Hit, error) {
	// an empty query matches every owned task in the text passes
	query = search.NormalizeQuery(query)

	ctx, span := tracer.Tracer("search").Start(ctx, "HybridSearch")
	defer span.End()

	words := search.ExtractWords(query)
	span.SetAttributes(attribute.Int("search.words", len(words)))

	storeCtx, cancel := withTimeout(ctx, s.options.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(storeCtx)
	repo := uow.TaskRepository()

	found := passResults{words: make([][]*entity.Task, len(words))}
	owned := specification.OwnedBy{OwnerID: ownerId}

	// text passes are mandatory, any failure aborts the search
	g, gctx := errgroup.WithContext(storeCtx)
	g.Go(func() (err error) {
		found.content, err = repo.FindAll(gctx, owned, specification.ContentContains{Query: query}, specification.WithoutEmbedding{})
		return err
	})
	g.Go(func() (err error) {
		found.rawText, err = repo.FindAll(gctx, owned, specification.RawTextContains{Query: query}, specification.WithoutEmbedding{})
		return err
	})
	for i, word := range words {
		i, word := i, word
		g.Go(func() (err error) {
			found.words[i], err = repo.FindAll(gctx, owned, specification.RawTextContains{Query: word}, specification.WithoutEmbedding{})
			return err
		})
	}

	// the vector pass never fails the search
	vectorDone := make(chan struct{})
	go func() {
		defer close(vectorDone)
		found.vector = s.vectorPass(ctx, ownerId, query)
	}()

	textErr := g.Wait()
	<-vectorDone

	if textErr != nil {
		span.RecordError(textErr)
		span.SetStatus(codes.Error, "text pass failed")
		s.logger.Error(moduleSearch, "Text search failed", map[string]interface{}{
			"owner_id": ownerId,
			"error":    textErr,
		})
		return nil, apperror.NewStorage("Failed to search tasks", textErr)
	}

	results := search.NewResults()
	results.AddTasks(search.SourceContent, found.content)
	results.AddTasks(search.SourceRawText, found.rawText)
	for _, tasks := range found.words {
		results.AddTasks(search.SourceWord, tasks)
	}
	results.AddScored(search.SourceVector, found.vector)

	hits := results.Ranked(s.options.ResultLimit)

	span.SetAttributes(
		attribute.Int("search.candidates", results.Len()),
		attribute.Int("search.vector_hits", len(found.vector)),
		attribute.Int("search.results", len(hits)),
	)
	s.logger.Debug(moduleSearch, "Search completed", map[string]interface{}{
		"owner_id":   ownerId,
		"candidates": results.Len(),
		"results":    len(hits),
	})

	return hits, nil
}

func (s *searchService) vectorPass(ctx context.Context, ownerId, query string) []*entity.ScoredTask {
	embedCtx, cancelEmbed := withTimeout(ctx, s.options.EmbedTimeout)
	defer cancelEmbed()

	vector, err := embedding.Embed(embedCtx, s.embeddingProvider, query, embedding.TaskTypeRetrievalQuery, entity.EmbeddingDimensions)
	if err != nil {
		s.logger.Warn(moduleSearch, "Query embedding failed, text results only", map[string]interface{}{
			"owner_id": ownerId,
			"error":    apperror.NewUpstreamDegraded("embedder", err),
		})
		return nil
	}

	storeCtx, cancelStore := withTimeout(ctx, s.options.StoreTimeout)
	defer cancelStore()

	uow := s.uowFactory.NewUnitOfWork(storeCtx)
	scored, err := uow.TaskRepository().MatchSimilar(storeCtx, vector, s.options.MatchThreshold, s.options.MatchCount, ownerId)
	if err != nil {
		s.logger.Warn(moduleSearch, "Vector search failed, text results only", map[string]interface{}{
			"owner_id": ownerId,
			"error":    err,
		})
		return nil
	}
	return scored
}
