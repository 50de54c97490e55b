package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/repository/contract"
	"growny-ai-be/internal/repository/specification"
	"growny-ai-be/internal/repository/unitofwork"
	"growny-ai-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	var tables int64
	gormDB.Raw("SELECT count(*) FROM information_schema.tables WHERE table_name = 'tasks'").Scan(&tables)
	if tables == 0 {
		t.Skip("Skipping integration test: run cmd/migrate first")
	}
	return gormDB
}

func unitVector(hot int) []float32 {
	v := make([]float32, entity.EmbeddingDimensions)
	v[hot] = 1
	return v
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()

	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)
	repo := uow.TaskRepository()

	owner := "it-" + uuid.NewString()
	other := "it-" + uuid.NewString()

	embedded := &entity.Task{
		OwnerId:   owner,
		RawText:   "remind me to call mom tomorrow",
		Content:   "Call mom",
		Category:  entity.CategoryReminder,
		Priority:  entity.PriorityMedium,
		Embedding: unitVector(0),
	}
	plain := &entity.Task{
		OwnerId:  owner,
		RawText:  "buy groceries 100%_organic",
		Content:  "Buy groceries",
		Category: entity.CategoryTask,
		Priority: entity.PriorityLow,
	}
	foreign := &entity.Task{
		OwnerId:  other,
		RawText:  "call the plumber",
		Content:  "Call plumber",
		Category: entity.CategoryTask,
		Priority: entity.PriorityHigh,
	}

	for _, task := range []*entity.Task{embedded, plain, foreign} {
		require.NoError(t, repo.Create(ctx, task))
		require.NotZero(t, task.Id)
	}
	t.Cleanup(func() {
		for _, task := range []*entity.Task{embedded, plain, foreign} {
			_, _ = repo.DeleteOwned(ctx, task.Id, task.OwnerId)
		}
	})

	t.Run("ListByOwner is owner scoped and newest first", func(t *testing.T) {
		tasks, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, plain.Id, tasks[0].Id)
		assert.Equal(t, embedded.Id, tasks[1].Id)
		assert.True(t, tasks[1].HasEmbedding())
		assert.False(t, tasks[0].HasEmbedding())
	})

	t.Run("ContentContains is case insensitive", func(t *testing.T) {
		tasks, err := repo.FindAll(ctx,
			specification.OwnedBy{OwnerID: owner},
			specification.ContentContains{Query: "CALL"},
			specification.WithoutEmbedding{},
		)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, embedded.Id, tasks[0].Id)
		assert.False(t, tasks[0].HasEmbedding())
	})

	t.Run("RawTextContains treats wildcards literally", func(t *testing.T) {
		tasks, err := repo.FindAll(ctx,
			specification.OwnedBy{OwnerID: owner},
			specification.RawTextContains{Query: "100%_"},
		)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, plain.Id, tasks[0].Id)
	})

	t.Run("UpdateEmbedding fills the missing vector", func(t *testing.T) {
		require.NoError(t, repo.UpdateEmbedding(ctx, plain.Id, unitVector(1)))

		count, err := repo.Count(ctx, specification.OwnedBy{OwnerID: owner}, specification.HasEmbedding{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("MatchSimilar ranks by cosine similarity", func(t *testing.T) {
		var fn int64
		gormDB.Raw("SELECT count(*) FROM pg_proc WHERE proname = 'match_tasks'").Scan(&fn)
		if fn == 0 {
			t.Skip("match_tasks not installed")
		}

		scored, err := repo.MatchSimilar(ctx, unitVector(0), 0.3, 20, owner)
		require.NoError(t, err)
		require.Len(t, scored, 1)
		assert.Equal(t, embedded.Id, scored[0].Task.Id)
		assert.InDelta(t, 1.0, scored[0].Similarity, 1e-6)
	})

	t.Run("DeleteOwned refuses other owners", func(t *testing.T) {
		deleted, err := repo.DeleteOwned(ctx, foreign.Id, owner)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = repo.DeleteOwned(ctx, foreign.Id, other)
		require.NoError(t, err)
		assert.True(t, deleted)

		task, err := repo.FindOne(ctx, specification.ByID{ID: foreign.Id})
		require.NoError(t, err)
		assert.Nil(t, task)
	})

	t.Run("UpdateEmbedding on a missing row", func(t *testing.T) {
		err := repo.UpdateEmbedding(ctx, foreign.Id, unitVector(2))
		assert.ErrorIs(t, err, contract.ErrTaskNotFound)
	})
}
