// Package store persists sweep results in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableRun      = "run"
	tableHistory  = "history"
	tableFidelity = "fidelity"
)

// DB stores the results of training runs.
type DB struct {
	Path string

	db *sql.DB
}

// A Run is the outcome of training one (depth, seed) configuration.
type Run struct {
	Depth      int
	Seed       int
	FinalCost  float64
	Holdout    float64
	Fidelities []float64
}

func Open(path string) (*DB, error) {
	d := &DB{Path: path}
	var err error
	d.db, err = sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if err := prepareDB(d.db); err != nil {
		d.db.Close()
		return nil, errors.Wrap(err, "")
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for _, sqlStr := range []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (depth INTEGER, seed INTEGER, cost REAL, holdout REAL, PRIMARY KEY (depth, seed)) STRICT`, tableRun),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (depth INTEGER, seed INTEGER, iter INTEGER, cost REAL, PRIMARY KEY (depth, seed, iter)) STRICT`, tableHistory),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (depth INTEGER, seed INTEGER, pair INTEGER, fidelity REAL, PRIMARY KEY (depth, seed, pair)) STRICT`, tableFidelity),
	} {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}

// PutRun records a finished run,
// replacing any previous result of the same configuration.
func (d *DB) PutRun(r Run) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (depth, seed, cost, holdout) VALUES (?, ?, ?, ?)`, tableRun)
	if _, err := d.db.ExecContext(ctx, sqlStr, r.Depth, r.Seed, r.FinalCost, r.Holdout); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%#v", r))
	}

	sqlStr = fmt.Sprintf(`INSERT OR REPLACE INTO %s (depth, seed, pair, fidelity) VALUES (?, ?, ?, ?)`, tableFidelity)
	for i, f := range r.Fidelities {
		if _, err := d.db.ExecContext(ctx, sqlStr, r.Depth, r.Seed, i, f); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v %d", r, i))
		}
	}
	return nil
}

// PutHistory records the cost at every iteration of a run.
func (d *DB) PutHistory(depth, seed int, cost []float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (depth, seed, iter, cost) VALUES (?, ?, ?, ?)`, tableHistory)
	for i, c := range cost {
		if _, err := d.db.ExecContext(ctx, sqlStr, depth, seed, i, c); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%d %d %d", depth, seed, i))
		}
	}
	return nil
}

// Runs returns all recorded runs ordered by depth, then seed.
func (d *DB) Runs() ([]Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fidelities := make(map[[2]int][]float64)
	sqlStr := fmt.Sprintf(`SELECT depth, seed, pair, fidelity FROM %s ORDER BY depth, seed, pair`, tableFidelity)
	rows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()
	for rows.Next() {
		var depth, seed, pair int
		var f float64
		if err := rows.Scan(&depth, &seed, &pair, &f); err != nil {
			return nil, errors.Wrap(err, "")
		}
		fidelities[[2]int{depth, seed}] = append(fidelities[[2]int{depth, seed}], f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`SELECT depth, seed, cost, holdout FROM %s ORDER BY depth, seed`, tableRun)
	runRows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer runRows.Close()

	runs := make([]Run, 0)
	for runRows.Next() {
		var r Run
		if err := runRows.Scan(&r.Depth, &r.Seed, &r.FinalCost, &r.Holdout); err != nil {
			return nil, errors.Wrap(err, "")
		}
		r.Fidelities = fidelities[[2]int{r.Depth, r.Seed}]
		runs = append(runs, r)
	}
	if err := runRows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	return runs, nil
}

// History returns the recorded cost curve of a run.
func (d *DB) History(depth, seed int) ([]float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT cost FROM %s WHERE depth=? AND seed=? ORDER BY iter`, tableHistory)
	rows, err := d.db.QueryContext(ctx, sqlStr, depth, seed)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	cost := make([]float64, 0)
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, errors.Wrap(err, "")
		}
		cost = append(cost, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	return cost, nil
}
