package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

//go:embed scripts/initdb.sql
var schemaSQL string

// schemaVersion is the row initdb.sql records in textlens_meta.
const schemaVersion = 1

// DatabaseClient keeps sessions in Postgres so they survive restarts. Each
// session is one JSONB row; concurrent writers are last-write-wins.
type DatabaseClient struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ core.SessionStore = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, databaseURL string, ttl time.Duration) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	c := &DatabaseClient{db: db, ttl: ttl, now: time.Now}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := c.PurgeExpired(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// migrate applies initdb.sql unless textlens_meta already records
// schemaVersion. The script is idempotent.
func (c *DatabaseClient) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	applied, err := c.schemaApplied(ctx)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (c *DatabaseClient) schemaApplied(ctx context.Context) (bool, error) {
	var hasMeta bool
	if err := c.db.QueryRowContext(ctx, `SELECT to_regclass('textlens_meta') IS NOT NULL`).Scan(&hasMeta); err != nil {
		return false, fmt.Errorf("meta table check: %w", err)
	}
	if !hasMeta {
		return false, nil
	}

	var hasVersion bool
	if err := c.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM textlens_meta WHERE version = $1)`, schemaVersion).Scan(&hasVersion); err != nil {
		return false, fmt.Errorf("meta version check: %w", err)
	}
	return hasVersion, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) Get(ctx context.Context, id string) (*models.Session, error) {
	const q = `
		SELECT payload FROM textlens_sessions
		WHERE id = $1 AND expires_at > $2
	`
	var raw []byte
	err := c.db.QueryRowContext(ctx, q, id, c.now()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if session.Turns == nil {
		session.Turns = []models.ConversationTurn{}
	}
	return &session, nil
}

// Save upserts the session and pushes its expiry out by the store TTL.
func (c *DatabaseClient) Save(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	const q = `
		INSERT INTO textlens_sessions (id, payload, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, updated_at = now()
	`
	if _, err := c.db.ExecContext(ctx, q, session.ID, raw, c.now().Add(c.ttl)); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (c *DatabaseClient) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM textlens_sessions WHERE id = $1 AND expires_at > $2`, id, c.now())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

// PurgeExpired removes rows whose TTL has passed and reports how many went.
func (c *DatabaseClient) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM textlens_sessions WHERE expires_at <= $1`, c.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
