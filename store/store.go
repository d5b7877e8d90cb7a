// Package store persists extraction runs in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/jsphweid/stylerank/collector"
	"github.com/jsphweid/stylerank/model"
	"github.com/jsphweid/stylerank/util"
	"k8s.io/utils/clock"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db    *sql.DB
	clock clock.PassiveClock
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, clk clock.PassiveClock) (*Store, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerrors.WithStackTrace(err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, clock: clk}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores res under a new run id. paths are the batch inputs that
// res.Indices refer to.
func (s *Store) SaveRun(ctx context.Context, paths []string, upperBound int, res collector.Result) (model.RunSummary, error) {
	summary := model.RunSummary{
		ID:         uuid.NewString(),
		CreatedAt:  s.clock.Now().UTC(),
		UpperBound: upperBound,
		Paths:      paths,
		Indices:    res.Indices,
		Features:   util.SortedKeys(res.Features),
	}
	if summary.Paths == nil {
		summary.Paths = []string{}
	}
	if summary.Indices == nil {
		summary.Indices = []int{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, upper_bound, paths, indices) VALUES (?, ?, ?, ?, ?)`,
		summary.ID,
		summary.CreatedAt.Format(time.RFC3339Nano),
		upperBound,
		mustJSON(summary.Paths),
		mustJSON(summary.Indices),
	)
	if err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}

	for _, name := range summary.Features {
		fd := res.Features[name]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_features (run_id, name, domain, matrix) VALUES (?, ?, ?, ?)`,
			summary.ID,
			name,
			mustJSON(nonNil(fd.Domain)),
			mustJSON(nonNil(fd.Matrix)),
		)
		if err != nil {
			return model.RunSummary{}, goerrors.WithStackTrace(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}
	return summary, nil
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, goerrors.WithStackTrace(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, goerrors.WithStackTrace(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, goerrors.WithStackTrace(err)
	}

	res := make([]model.RunSummary, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (model.RunSummary, error) {
	var createdAt, paths, indices string
	run := model.RunSummary{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, upper_bound, paths, indices FROM runs WHERE id = ?`, id,
	).Scan(&createdAt, &run.UpperBound, &paths, &indices)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunSummary{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}
	if err := json.Unmarshal([]byte(paths), &run.Paths); err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}
	if err := json.Unmarshal([]byte(indices), &run.Indices); err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM run_features WHERE run_id = ? ORDER BY name`, id)
	if err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}
	defer rows.Close()
	run.Features = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return model.RunSummary{}, goerrors.WithStackTrace(err)
		}
		run.Features = append(run.Features, name)
	}
	if err := rows.Err(); err != nil {
		return model.RunSummary{}, goerrors.WithStackTrace(err)
	}
	return run, nil
}

func (s *Store) GetFeature(ctx context.Context, runID, name string) (collector.FeatureData, error) {
	var domain, matrix string
	err := s.db.QueryRowContext(ctx,
		`SELECT domain, matrix FROM run_features WHERE run_id = ? AND name = ?`, runID, name,
	).Scan(&domain, &matrix)
	if errors.Is(err, sql.ErrNoRows) {
		return collector.FeatureData{}, fmt.Errorf("feature %s of run %s: %w", name, runID, ErrNotFound)
	}
	if err != nil {
		return collector.FeatureData{}, goerrors.WithStackTrace(err)
	}

	var fd collector.FeatureData
	if err := json.Unmarshal([]byte(domain), &fd.Domain); err != nil {
		return collector.FeatureData{}, goerrors.WithStackTrace(err)
	}
	if err := json.Unmarshal([]byte(matrix), &fd.Matrix); err != nil {
		return collector.FeatureData{}, goerrors.WithStackTrace(err)
	}
	return fd, nil
}

// DeleteRun removes a run and its features.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return goerrors.WithStackTrace(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

func nonNil(v []uint64) []uint64 {
	if v == nil {
		return []uint64{}
	}
	return v
}

// mustJSON encodes values that cannot fail to marshal.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
