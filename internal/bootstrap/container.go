package bootstrap

import (
	"context"
	"time"

	"growny-ai-be/internal/config"
	"growny-ai-be/internal/controller"
	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/internal/pkg/ratelimit"
	"growny-ai-be/internal/pkg/serverutils"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/internal/service"
	"growny-ai-be/pkg/classifier"
	"growny-ai-be/pkg/embedding"
	"growny-ai-be/pkg/events"
	"growny-ai-be/pkg/identity"
	"growny-ai-be/pkg/llm/factory"
	pktNats "growny-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	moduleBootstrap    = "BOOTSTRAP"
	queryEmbeddingTTL  = 24 * time.Hour
	dependencyPingWait = 3 * time.Second
)

type Container struct {
	// Controllers
	TaskController     controller.ITaskController
	FrontendController controller.IFrontendController

	// Middleware
	ErrorHandler fiber.Handler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus (in-process, embedding backfill)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. AI providers. A missing provider degrades ingestion and search, it never stops the server.
	embeddingProvider := c.newEmbeddingProvider(ctx, cfg)
	taskClassifier := c.newClassifier(ctx, cfg)

	// Query-side embedder gets the Redis cache when configured
	searchEmbedder := embeddingProvider
	if rdb := c.newRedis(ctx, cfg); rdb != nil && embeddingProvider != nil {
		searchEmbedder = embedding.NewCachedProvider(embeddingProvider, rdb, embeddingModelName(cfg), entity.EmbeddingDimensions, queryEmbeddingTTL)
	}

	// 4. Domain event bus
	eventPublisher := c.newEventPublisher(ctx, cfg)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.BackfillTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.BackfillTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
		cfg.Ai.EmbedTimeout,
	)

	ingestionService := service.NewIngestionService(
		uowFactory,
		taskClassifier,
		embeddingProvider,
		publisherService,
		eventPublisher,
		sysLogger,
		service.IngestionTimeouts{
			Classify: cfg.Ai.ClassifyTimeout,
			Embed:    cfg.Ai.EmbedTimeout,
			Store:    cfg.Database.QueryTimeout,
		},
	)

	searchService := service.NewSearchService(
		uowFactory,
		searchEmbedder,
		sysLogger,
		service.SearchOptions{
			MatchThreshold: cfg.Search.MatchThreshold,
			MatchCount:     cfg.Search.MatchCount,
			ResultLimit:    cfg.Search.ResultLimit,
			StoreTimeout:   cfg.Database.QueryTimeout,
			EmbedTimeout:   cfg.Ai.EmbedTimeout,
		},
	)

	taskService := service.NewTaskService(
		uowFactory,
		ingestionService,
		searchService,
		eventPublisher,
		sysLogger,
		cfg.Database.QueryTimeout,
	)

	// 6. Access boundary
	verifier := c.newVerifier(ctx, cfg)
	auth := serverutils.IdentityMiddleware(verifier, sysLogger)
	limiter := serverutils.RateLimitMiddleware(ratelimit.NewRateLimiter(cfg.App.RateLimitPerSecond, cfg.App.RateLimitBurst))

	c.TaskController = controller.NewTaskController(taskService, auth, limiter)
	c.FrontendController = controller.NewFrontendController(cfg.App.StaticDir, cfg.App.Version)
	c.ErrorHandler = serverutils.ErrorHandlerMiddleware(sysLogger, cfg.IsProduction())
	c.ConsumerService = consumerService

	return c
}

// Close releases bus and client connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func embeddingModelName(cfg *config.Config) string {
	if cfg.Ai.EmbeddingProvider == "ollama" {
		return cfg.Ai.OllamaModel
	}
	return cfg.Ai.EmbeddingModel
}

func (c *Container) newEmbeddingProvider(ctx context.Context, cfg *config.Config) embedding.EmbeddingProvider {
	if cfg.Ai.EmbeddingProvider == "ollama" {
		c.Logger.Info(moduleBootstrap, "Using embedding provider", map[string]interface{}{
			"provider": "ollama",
			"model":    cfg.Ai.OllamaModel,
		})
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	}

	provider, err := embedding.NewGeminiProvider(ctx, cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
	if err != nil {
		c.Logger.Error(moduleBootstrap, "Embedding provider unavailable, tasks will be stored without vectors", map[string]interface{}{"error": err})
		return nil
	}
	c.closers = append(c.closers, func() { _ = provider.Close() })

	c.Logger.Info(moduleBootstrap, "Using embedding provider", map[string]interface{}{
		"provider": "gemini",
		"model":    cfg.Ai.EmbeddingModel,
	})
	return provider
}

func (c *Container) newClassifier(ctx context.Context, cfg *config.Config) classifier.Classifier {
	llmProvider, err := factory.NewLLMProvider(
		ctx,
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		c.Logger.Error(moduleBootstrap, "LLM provider unavailable, every task gets the fallback classification", map[string]interface{}{"error": err})
		return nil
	}
	if closer, ok := llmProvider.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func() { _ = closer.Close() })
	}

	c.Logger.Info(moduleBootstrap, "Using LLM provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})
	return classifier.NewClassifier(llmProvider)
}

func (c *Container) newRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		c.Logger.Warn(moduleBootstrap, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}

	rdb := redis.NewClient(opt)
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingWait)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.Logger.Warn(moduleBootstrap, "Redis not reachable, query embeddings will not be cached", map[string]interface{}{"error": err})
	}
	return rdb
}

func (c *Container) newEventPublisher(ctx context.Context, cfg *config.Config) events.Publisher {
	if cfg.App.NatsURL == "" {
		return events.NopPublisher{}
	}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		c.Logger.Warn(moduleBootstrap, "Failed to connect to NATS, domain events disabled", map[string]interface{}{"error": err})
		return events.NopPublisher{}
	}
	c.closers = append(c.closers, natsPub.Close)

	streamCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := natsPub.EnsureStream(streamCtx); err != nil {
		c.Logger.Warn(moduleBootstrap, "NATS stream setup failed", map[string]interface{}{"error": err})
	}
	return natsPub
}

func (c *Container) newVerifier(ctx context.Context, cfg *config.Config) identity.Verifier {
	idCfg := identity.Config{
		ProjectID:       cfg.Keys.FirebaseProjectId,
		CredentialsPath: cfg.Keys.FirebaseCredentialsPath,
		JWTSecret:       cfg.Keys.JwtSecret,
	}

	verifier, err := identity.NewVerifier(ctx, idCfg)
	if err != nil {
		c.Logger.Error(moduleBootstrap, "Failed to read Firebase credentials", map[string]interface{}{"error": err})
		idCfg.CredentialsPath = ""
		verifier, _ = identity.NewVerifier(ctx, idCfg)
	}

	if verifier.Mode() == identity.ModeNone {
		c.Logger.Error(moduleBootstrap, "No token verification configured, protected routes will reject every request", nil)
	} else {
		c.Logger.Info(moduleBootstrap, "Token verification ready", map[string]interface{}{"mode": verifier.Mode()})
	}
	return verifier
}
