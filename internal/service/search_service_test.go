package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"growny-ai-be/internal/entity"
	"growny-ai-be/internal/pkg/apperror"
	"growny-ai-be/internal/pkg/logger"
	"growny-ai-be/pkg/embedding"
	"growny-ai-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchFixture(repo *memTaskRepo, embedder *fakeEmbedder) ISearchService {
	return NewSearchService(
		&fakeFactory{repo: repo},
		embedder,
		logger.NewNopLogger(),
		SearchOptions{
			MatchThreshold: 0.3,
			MatchCount:     20,
			ResultLimit:    20,
			StoreTimeout:   time.Second,
			EmbedTimeout:   time.Second,
		},
	)
}

func similarities(hits []search.Hit) map[int64]float64 {
	out := make(map[int64]float64, len(hits))
	for _, h := range hits {
		out[h.Task.Id] = h.Similarity
	}
	return out
}

func TestSearchEmptyQueryMatchesAllOwnedTasks(t *testing.T) {
	repo := newMemTaskRepo(
		&entity.Task{Id: 1, OwnerId: "user-1", Content: "Call mom", RawText: "call mom"},
		&entity.Task{Id: 2, OwnerId: "user-1", Content: "Buy milk", RawText: "milk"},
		&entity.Task{Id: 3, OwnerId: "user-2", Content: "Not mine", RawText: "other"},
	)
	embedder := &fakeEmbedder{err: errors.New("empty input")}

	hits, err := newSearchFixture(repo, embedder).Search(context.Background(), "user-1", "   ")

	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, hit := range hits {
		assert.Equal(t, "user-1", hit.Task.OwnerId)
		assert.Equal(t, search.TextMatchScore, hit.Similarity)
	}
	assert.Equal(t, []string{""}, embedder.texts)
}

func TestSearchEmptyQueryIsCapped(t *testing.T) {
	var tasks []*entity.Task
	for i := int64(1); i <= 25; i++ {
		tasks = append(tasks, &entity.Task{Id: i, OwnerId: "user-1", Content: "task", RawText: "task"})
	}

	hits, err := newSearchFixture(newMemTaskRepo(tasks...), &fakeEmbedder{err: errors.New("down")}).Search(context.Background(), "user-1", "")

	require.NoError(t, err)
	assert.Len(t, hits, 20)
}

func TestSearchTextMatchWithoutVector(t *testing.T) {
	repo := newMemTaskRepo(&entity.Task{Id: 1, OwnerId: "user-1", Content: "Buy milk at the store.", RawText: "milk"})

	hits, err := newSearchFixture(repo, &fakeEmbedder{values: vector(0.1)}).Search(context.Background(), "user-1", "MILK at")

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, search.TextMatchScore, hits[0].Similarity)
}

func TestSearchVectorNeverLowersTextScore(t *testing.T) {
	high := &entity.Task{Id: 1, OwnerId: "user-1", Content: "Dentist appointment", RawText: "dentist"}
	low := &entity.Task{Id: 2, OwnerId: "user-1", Content: "Dentist bill", RawText: "pay dentist"}
	semantic := &entity.Task{Id: 3, OwnerId: "user-1", Content: "Teeth cleaning", RawText: "teeth"}

	repo := newMemTaskRepo(high, low, semantic)
	repo.matches = []*entity.ScoredTask{
		{Task: high, Similarity: 0.95},
		{Task: low, Similarity: 0.4},
		{Task: semantic, Similarity: 0.6},
	}

	embedder := &fakeEmbedder{values: vector(0.1)}
	hits, err := newSearchFixture(repo, embedder).Search(context.Background(), "user-1", "dentist")
	require.NoError(t, err)

	got := similarities(hits)
	assert.Equal(t, 0.95, got[1])
	assert.Equal(t, 0.8, got[2])
	assert.Equal(t, 0.6, got[3])

	assert.Equal(t, int64(1), hits[0].Task.Id)
	assert.Equal(t, int64(2), hits[1].Task.Id)
	assert.Equal(t, int64(3), hits[2].Task.Id)

	assert.Equal(t, []string{embedding.TaskTypeRetrievalQuery}, embedder.taskTypes)
}

func TestSearchWordPass(t *testing.T) {
	repo := newMemTaskRepo(
		&entity.Task{Id: 1, OwnerId: "user-1", Content: "Groceries", RawText: "need milk"},
		&entity.Task{Id: 2, OwnerId: "user-1", Content: "Breakfast", RawText: "toast"},
		&entity.Task{Id: 3, OwnerId: "user-1", Content: "Errand", RawText: "please call"},
	)

	hits, err := newSearchFixture(repo, &fakeEmbedder{err: errors.New("down")}).Search(context.Background(), "user-1", "buy milk please")
	require.NoError(t, err)

	got := similarities(hits)
	assert.Len(t, got, 2)
	assert.Equal(t, search.WordMatchScore, got[1])
	assert.Equal(t, search.WordMatchScore, got[3])
}

func TestSearchDegradesWhenVectorPassFails(t *testing.T) {
	task := &entity.Task{Id: 1, OwnerId: "user-1", Content: "Buy milk", RawText: "milk"}

	t.Run("embedding error", func(t *testing.T) {
		repo := newMemTaskRepo(task)
		hits, err := newSearchFixture(repo, &fakeEmbedder{err: errors.New("quota")}).Search(context.Background(), "user-1", "milk")
		require.NoError(t, err)
		assert.Len(t, hits, 1)
		assert.Zero(t, repo.matchCalls)
	})

	t.Run("match error", func(t *testing.T) {
		repo := newMemTaskRepo(task)
		repo.matchErr = errors.New("function match_tasks does not exist")
		hits, err := newSearchFixture(repo, &fakeEmbedder{values: vector(0.1)}).Search(context.Background(), "user-1", "milk")
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("nothing found", func(t *testing.T) {
		repo := newMemTaskRepo(task)
		hits, err := newSearchFixture(repo, &fakeEmbedder{err: errors.New("quota")}).Search(context.Background(), "user-1", "unrelated")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestSearchStoreFailure(t *testing.T) {
	repo := newMemTaskRepo()
	repo.findErr = errStoreDown

	_, err := newSearchFixture(repo, &fakeEmbedder{values: vector(0.1)}).Search(context.Background(), "user-1", "milk")

	assert.True(t, apperror.Is(err, apperror.ErrStorage))
}

func TestSearchScopesToOwner(t *testing.T) {
	mine := &entity.Task{Id: 1, OwnerId: "user-1", Content: "Buy milk", RawText: "milk"}
	theirs := &entity.Task{Id: 2, OwnerId: "user-2", Content: "Buy milk", RawText: "milk"}
	repo := newMemTaskRepo(mine, theirs)
	repo.matches = []*entity.ScoredTask{{Task: theirs, Similarity: 0.9}}

	hits, err := newSearchFixture(repo, &fakeEmbedder{values: vector(0.1)}).Search(context.Background(), "user-1", "milk")

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].Task.Id)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	var tasks []*entity.Task
	for i := int64(1); i <= 30; i++ {
		tasks = append(tasks, &entity.Task{Id: i, OwnerId: "user-1", Content: fmt.Sprintf("milk %d", i), RawText: "x"})
	}
	repo := newMemTaskRepo(tasks...)

	hits, err := newSearchFixture(repo, &fakeEmbedder{err: errors.New("down")}).Search(context.Background(), "user-1", "milk")

	require.NoError(t, err)
	assert.Len(t, hits, 20)
	assert.Equal(t, int64(1), hits[0].Task.Id)
}
