package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/listing-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pipeline_states (
	product_id TEXT PRIMARY KEY,
	stage      TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	product_id   TEXT NOT NULL,
	stage        TEXT NOT NULL,
	body         TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	UNIQUE(product_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_pipeline_states_stage ON pipeline_states(stage);
CREATE INDEX IF NOT EXISTS idx_artifacts_product ON artifacts(product_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveState(ctx context.Context, state *model.PipelineState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal state")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pipeline_states (product_id, stage, state, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET stage = excluded.stage, state = excluded.state, updated_at = excluded.updated_at`,
		state.ProductID, string(state.Stage), string(stateJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save state %s", state.ProductID)
}

func (s *SQLiteStore) GetState(ctx context.Context, productID string) (*model.PipelineState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state FROM pipeline_states WHERE product_id = ?`, productID,
	)

	var stateJSON string
	err := row.Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get state")
	}
	return unmarshalState(stateJSON)
}

func (s *SQLiteStore) ListStates(ctx context.Context) ([]model.PipelineState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM pipeline_states ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list states")
	}
	defer rows.Close()

	var states []model.PipelineState
	for rows.Next() {
		var stateJSON string
		if err := rows.Scan(&stateJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan state")
		}
		st, err := unmarshalState(stateJSON)
		if err != nil {
			return nil, err
		}
		states = append(states, *st)
	}
	return states, eris.Wrap(rows.Err(), "sqlite: list states iterate")
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, artifact *model.Artifact) error {
	id := artifact.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, product_id, stage, body, generated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(product_id, stage) DO UPDATE SET id = excluded.id, body = excluded.body, generated_at = excluded.generated_at`,
		id, artifact.ProductID, string(artifact.Stage), artifact.Text, artifact.GeneratedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save %s artifact for %s", artifact.Stage, artifact.ProductID)
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, productID string, stage model.Stage) (*model.Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, product_id, stage, body, generated_at FROM artifacts WHERE product_id = ? AND stage = ?`,
		productID, string(stage),
	)

	var a model.Artifact
	err := row.Scan(&a.ID, &a.ProductID, &a.Stage, &a.Text, &a.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get artifact")
	}
	return &a, nil
}

func (s *SQLiteStore) DeleteArtifacts(ctx context.Context, productID string, stages ...model.Stage) (int, error) {
	query := `DELETE FROM artifacts WHERE product_id = ?`
	args := []any{productID}

	if len(stages) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stages)), ",")
		query += ` AND stage IN (` + placeholders + `)`
		for _, st := range stages {
			args = append(args, string(st))
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete artifacts")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func unmarshalState(stateJSON string) (*model.PipelineState, error) {
	var st model.PipelineState
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal state")
	}
	return &st, nil
}
