package weightstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/pkg/core"
)

const schema = `CREATE TABLE IF NOT EXISTS peer_weights (
	run_id TEXT NOT NULL,
	dmu    TEXT NOT NULL,
	peer   TEXT NOT NULL,
	weight REAL NOT NULL,
	PRIMARY KEY (run_id, dmu, peer)
)`

// SQLiteStore keeps peer weights in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ ReadWriter = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path. Use
// ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weight store %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create weight store schema: %w", err)
	}
	logging.FromContext(ctx).V(logging.DEBUG).Info("Opened peer weight store", "path", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Put(ctx context.Context, run, dmu string, weights map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM peer_weights WHERE run_id = ? AND dmu = ?`, run, dmu); err != nil {
		return fmt.Errorf("failed to clear weights of %s/%s: %w", run, dmu, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO peer_weights (run_id, dmu, peer, weight) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for peer, w := range weights {
		if _, err := stmt.ExecContext(ctx, run, dmu, peer, w); err != nil {
			return fmt.Errorf("failed to store weight of %s/%s on %s: %w", run, dmu, peer, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, run, dmu string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT peer, weight FROM peer_weights WHERE run_id = ? AND dmu = ?`, run, dmu)
	if err != nil {
		return nil, fmt.Errorf("failed to load weights of %s/%s: %w", run, dmu, err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var peer string
		var w float64
		if err := rows.Scan(&peer, &w); err != nil {
			return nil, err
		}
		weights[peer] = w
	}
	return weights, rows.Err()
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM peer_weights ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Drop(ctx context.Context, run string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM peer_weights WHERE run_id = ?`, run); err != nil {
		return fmt.Errorf("failed to drop weights of %s: %w", run, err)
	}
	return nil
}

// ForRun adapts the store to one Solution's core.PeerWeightStore.
func (s *SQLiteStore) ForRun(run string) core.PeerWeightStore {
	return &runStore{store: s, run: run}
}

// Factory returns a core.StoreFactory that scopes each Solution to its own run.
func (s *SQLiteStore) Factory() core.StoreFactory {
	return func(solutionID string) (core.PeerWeightStore, error) {
		return s.ForRun(solutionID), nil
	}
}

type runStore struct {
	store ReadWriter
	run   string
}

func (r *runStore) Put(dmu string, weights map[string]float64) error {
	return r.store.Put(context.Background(), r.run, dmu, weights)
}

func (r *runStore) Get(dmu string) (map[string]float64, error) {
	return r.store.Get(context.Background(), r.run, dmu)
}

func (r *runStore) Release() error {
	return r.store.Drop(context.Background(), r.run)
}
