package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

// Runs only when TEXTLENS_TEST_DATABASE_URL points at a disposable Postgres.
func newTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	url := os.Getenv("TEXTLENS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEXTLENS_TEST_DATABASE_URL not set")
	}
	c, err := NewDatabaseClient(context.Background(), url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDatabaseClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	now := time.Now().UTC()

	s := models.NewSession(now)
	s.LoadDocument("cat.txt", models.ExtractedText{Content: "The cat sat."}, now)
	require.NoError(t, s.RecordExchange("What is this about?", "A cat.", now))
	require.NoError(t, c.Save(ctx, s))

	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.DocumentID, got.DocumentID)
	assert.Equal(t, "The cat sat.", got.Document.Content)
	require.Len(t, got.Turns, 2)

	// saving again overwrites in place
	s.Reset(now)
	require.NoError(t, c.Save(ctx, s))
	got, err = c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Turns)

	require.NoError(t, c.Delete(ctx, s.ID))
	_, err = c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.ErrorIs(t, c.Delete(ctx, s.ID), core.ErrSessionNotFound)
}

func TestDatabaseClientExpiry(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	s := models.NewSession(time.Now())
	require.NoError(t, c.Save(ctx, s))

	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err := c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	n, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestNewDatabaseClientRequiresURL(t *testing.T) {
	_, err := NewDatabaseClient(context.Background(), "", time.Minute)
	assert.EqualError(t, err, "DATABASE_URL is empty")
}

func TestSchemaRecordsItsVersion(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS textlens_sessions")
	assert.Contains(t, schemaSQL, fmt.Sprintf("INSERT INTO textlens_meta (version) VALUES (%d)", schemaVersion))
}

func TestMigrateIsIdempotent(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.migrate(context.Background()))
	applied, err := c.schemaApplied(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
}
