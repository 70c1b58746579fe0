package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock implements it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"save_state":    `INSERT INTO pipeline_states (product_id, stage, state, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (product_id) DO UPDATE SET stage = EXCLUDED.stage, state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
	"get_state":     `SELECT state FROM pipeline_states WHERE product_id = $1`,
	"save_artifact": `INSERT INTO artifacts (id, product_id, stage, body, generated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (product_id, stage) DO UPDATE SET id = EXCLUDED.id, body = EXCLUDED.body, generated_at = EXCLUDED.generated_at`,
	"get_artifact":  `SELECT id, product_id, stage, body, generated_at FROM artifacts WHERE product_id = $1 AND stage = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pipeline_states (
	product_id TEXT PRIMARY KEY,
	stage      TEXT NOT NULL,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	product_id   TEXT NOT NULL,
	stage        TEXT NOT NULL,
	body         TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(product_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_pipeline_states_stage ON pipeline_states(stage);
CREATE INDEX IF NOT EXISTS idx_artifacts_product ON artifacts(product_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveState(ctx context.Context, state *model.PipelineState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal state")
	}

	_, err = s.pool.Exec(ctx, preparedStatements["save_state"],
		state.ProductID, string(state.Stage), string(stateJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save state %s", state.ProductID)
}

func (s *PostgresStore) GetState(ctx context.Context, productID string) (*model.PipelineState, error) {
	var stateJSON string
	err := s.pool.QueryRow(ctx, preparedStatements["get_state"], productID).Scan(&stateJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get state")
	}
	return unmarshalState(stateJSON)
}

func (s *PostgresStore) ListStates(ctx context.Context) ([]model.PipelineState, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT state FROM pipeline_states ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list states")
	}
	defer rows.Close()

	var states []model.PipelineState
	for rows.Next() {
		var stateJSON string
		if err := rows.Scan(&stateJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan state")
		}
		st, err := unmarshalState(stateJSON)
		if err != nil {
			return nil, err
		}
		states = append(states, *st)
	}
	return states, eris.Wrap(rows.Err(), "postgres: list states iterate")
}

func (s *PostgresStore) SaveArtifact(ctx context.Context, artifact *model.Artifact) error {
	id := artifact.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := s.pool.Exec(ctx, preparedStatements["save_artifact"],
		id, artifact.ProductID, string(artifact.Stage), artifact.Text, artifact.GeneratedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save %s artifact for %s", artifact.Stage, artifact.ProductID)
}

func (s *PostgresStore) GetArtifact(ctx context.Context, productID string, stage model.Stage) (*model.Artifact, error) {
	var a model.Artifact
	err := s.pool.QueryRow(ctx, preparedStatements["get_artifact"], productID, string(stage)).
		Scan(&a.ID, &a.ProductID, &a.Stage, &a.Text, &a.GeneratedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get artifact")
	}
	return &a, nil
}

func (s *PostgresStore) DeleteArtifacts(ctx context.Context, productID string, stages ...model.Stage) (int, error) {
	query := `DELETE FROM artifacts WHERE product_id = $1`
	args := []any{productID}

	if len(stages) > 0 {
		var placeholders []string
		for i, st := range stages {
			placeholders = append(placeholders, "$"+strconv.Itoa(i+2))
			args = append(args, string(st))
		}
		query += ` AND stage IN (` + strings.Join(placeholders, ", ") + `)`
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete artifacts")
	}
	return int(tag.RowsAffected()), nil
}
