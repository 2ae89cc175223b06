package sessionstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

func exerciseStore(t *testing.T, store core.SessionStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	s := models.NewSession(now)
	s.LoadDocument("cat.txt", models.ExtractedText{Content: "The cat sat."}, now)
	require.NoError(t, s.RecordExchange("What is this about?", "A cat.", now))
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.DocumentID, got.DocumentID)
	assert.Equal(t, "The cat sat.", got.Document.Content)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, models.RoleUser, got.Turns[0].Role)
	assert.Equal(t, models.RoleAssistant, got.Turns[1].Role)

	// mutating a loaded copy must not leak into the store
	got.Turns = append(got.Turns, models.ConversationTurn{Role: models.RoleUser, Content: "x"})
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, again.Turns, 2)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, s.ID), core.ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(30 * time.Millisecond)
	s := models.NewSession(time.Now())
	require.NoError(t, store.Save(context.Background(), s))

	time.Sleep(60 * time.Millisecond)

	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestMemoryStoreSaveIsolatesCaller(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	s := models.NewSession(time.Now())
	require.NoError(t, store.Save(context.Background(), s))

	s.LoadDocument("late.txt", models.ExtractedText{Content: "changed"}, time.Now())

	got, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Document)
}

// Runs only when TEXTLENS_TEST_REDIS_URL points at a disposable redis.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEXTLENS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEXTLENS_TEST_REDIS_URL not set")
	}
	store, err := NewRedisStore(context.Background(), url, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-redis-url", time.Minute)
	assert.Error(t, err)
}
