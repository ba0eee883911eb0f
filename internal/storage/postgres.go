package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/dailywords/internal"
)

// PostgresStore keeps the AppState as one jsonb row, so the whole-document
// overwrite contract is identical to the file backend.
type PostgresStore struct {
	pool      *pgxpool.Pool
	user1Name string
	user2Name string
	logger    internal.Logger
}

func NewPostgresStore(ctx context.Context, dsn, user1Name, user2Name string, logger internal.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %v", internal.ErrStorage, err)
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS app_state (
		id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		doc jsonb NOT NULL
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: create app_state table: %v", internal.ErrStorage, err)
	}

	return &PostgresStore{
		pool:      pool,
		user1Name: user1Name,
		user2Name: user2Name,
		logger:    logger,
	}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (*internal.AppState, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM app_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		state := internal.DefaultState(p.user1Name, p.user2Name, time.Now())
		if err := p.Save(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query app_state: %v", internal.ErrStorage, err)
	}

	state := &internal.AppState{}
	if err := json.Unmarshal(raw, state); err != nil {
		// Same self-healing contract as the file backend: keep the broken
		// document aside and recreate the default.
		quarantine := fmt.Sprintf("app_state_corrupted_%d", time.Now().Unix())
		p.logger.Errorf("storage: unparsable app_state row, copying to %s: %v", quarantine, err)
		if _, copyErr := p.pool.Exec(ctx,
			`CREATE TABLE IF NOT EXISTS `+quarantine+` AS SELECT * FROM app_state`); copyErr != nil {
			return nil, fmt.Errorf("%w: quarantine app_state: %v", internal.ErrStorage, copyErr)
		}
		state = internal.DefaultState(p.user1Name, p.user2Name, time.Now())
		if err := p.Save(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	state.Normalize(p.user1Name, p.user2Name, time.Now())
	return state, nil
}

func (p *PostgresStore) Save(ctx context.Context, state *internal.AppState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", internal.ErrStorage, err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO app_state (id, doc) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, doc)
	if err != nil {
		return fmt.Errorf("%w: upsert app_state: %v", internal.ErrStorage, err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

var _ StateRepository = (*PostgresStore)(nil)
