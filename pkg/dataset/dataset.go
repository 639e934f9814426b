// Package dataset persists training points in a SQLite database so that a
// set of samples can be replayed into a fresh model.
//
// 各行は (dataset, class, chunk, row) をキーに、入力と出力を JSON 配列で保存する。
// チャンクの順序と行の順序は保存時のまま復元される。
package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/smtgo/core"
	"github.com/YuminosukeSato/smtgo/core/training"
	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/pkg/log"
)

// ErrNotFound is returned when a dataset name has no rows.
var ErrNotFound = errors.New("dataset not found")

const schema = `
CREATE TABLE IF NOT EXISTS points (
	dataset TEXT    NOT NULL,
	class   TEXT    NOT NULL,
	chunk   INTEGER NOT NULL,
	row     INTEGER NOT NULL,
	x       TEXT    NOT NULL,
	y       TEXT    NOT NULL,
	PRIMARY KEY (dataset, class, chunk, row)
);`

// DB is a handle to a dataset file. It is safe for concurrent use.
type DB struct {
	db     *sql.DB
	mu     sync.Mutex
	logger log.Logger
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "dataset: init schema")
	}
	logger := log.GetLoggerWithName("dataset")
	if _, err := db.ExecContext(ctx, `PRAGMA synchronous = NORMAL;`); err != nil {
		logger.Warn("Failed to set PRAGMA", log.ErrAttrKey, err)
	}
	return &DB{db: db, logger: logger}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Save stores every chunk of s under name in one transaction, replacing any
// dataset already saved under that name.
func (d *DB) Save(ctx context.Context, name string, s *training.Store) error {
	if name == "" {
		return errors.NewValueError("dataset.Save", "name must not be empty")
	}
	if s == nil || s.Len() == 0 {
		return errors.NewModelError("dataset.Save", "store is empty", errors.ErrEmptyData)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "dataset: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE dataset = ?`, name); err != nil {
		return errors.Wrap(err, "dataset: replace")
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (dataset, class, chunk, row, x, y) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "dataset: prepare")
	}
	defer stmt.Close()

	var werr error
	chunkIdx := map[string]int{}
	s.Walk(func(class string, c training.Chunk) bool {
		ci := chunkIdx[class]
		chunkIdx[class] = ci + 1
		for i := 0; i < c.Rows(); i++ {
			xb, err := json.Marshal(mat.Row(nil, i, c.X))
			if err != nil {
				werr = errors.Wrapf(err, "dataset: encode x of %s/%d/%d", class, ci, i)
				return false
			}
			yb, err := json.Marshal(mat.Row(nil, i, c.Y))
			if err != nil {
				werr = errors.Wrapf(err, "dataset: encode y of %s/%d/%d", class, ci, i)
				return false
			}
			if _, err := stmt.ExecContext(ctx, name, class, ci, i, string(xb), string(yb)); err != nil {
				werr = errors.Wrap(err, "dataset: insert")
				return false
			}
		}
		return true
	})
	if werr != nil {
		return werr
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "dataset: commit")
	}
	d.logger.Info("Dataset saved", log.DatasetKey, name, log.SamplesKey, s.Len())
	return nil
}

type pending struct {
	class string
	x, y  []float64
	rows  int
	nx    int
	ny    int
}

func (p *pending) dense() (*mat.Dense, *mat.Dense) {
	return mat.NewDense(p.rows, p.nx, p.x), mat.NewDense(p.rows, p.ny, p.y)
}

// walk は保存順にチャンクを組み立てて fn に渡す。
func (d *DB) walk(ctx context.Context, name string, fn func(class string, X, Y *mat.Dense) error) error {
	rows, err := d.db.QueryContext(ctx,
		`SELECT class, chunk, x, y FROM points WHERE dataset = ? ORDER BY class, chunk, row`, name)
	if err != nil {
		return errors.Wrap(err, "dataset: query")
	}
	defer rows.Close()

	var cur *pending
	curChunk := -1
	flush := func() error {
		if cur == nil {
			return nil
		}
		X, Y := cur.dense()
		return fn(cur.class, X, Y)
	}
	for rows.Next() {
		var class, xs, ys string
		var chunk int
		if err := rows.Scan(&class, &chunk, &xs, &ys); err != nil {
			return errors.Wrap(err, "dataset: scan")
		}
		var x, y []float64
		if err := json.Unmarshal([]byte(xs), &x); err != nil {
			return errors.Wrap(err, "dataset: decode x")
		}
		if err := json.Unmarshal([]byte(ys), &y); err != nil {
			return errors.Wrap(err, "dataset: decode y")
		}
		if cur == nil || class != cur.class || chunk != curChunk {
			if err := flush(); err != nil {
				return err
			}
			cur = &pending{class: class, nx: len(x), ny: len(y)}
			curChunk = chunk
		}
		if len(x) != cur.nx || len(y) != cur.ny {
			return errors.NewDimensionError("dataset.Load", cur.nx, len(x), 1)
		}
		cur.x = append(cur.x, x...)
		cur.y = append(cur.y, y...)
		cur.rows++
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "dataset: rows")
	}
	if cur == nil {
		return errors.Wrapf(ErrNotFound, "dataset %q", name)
	}
	return flush()
}

// Load rebuilds the store saved under name.
func (d *DB) Load(ctx context.Context, name string) (*training.Store, error) {
	s := training.NewStore()
	err := d.walk(ctx, name, func(class string, X, Y *mat.Dense) error {
		return s.Add(class, X, Y)
	})
	if err != nil {
		return nil, err
	}
	d.logger.Debug("Dataset loaded", log.DatasetKey, name, log.SamplesKey, s.Len())
	return s, nil
}

// Replay feeds the chunks saved under name to t through
// AddTrainingPoints, so the receiver's own checks apply. Chunks added
// before a failing one stay in t.
func (d *DB) Replay(ctx context.Context, name string, t core.Trainer) error {
	n := 0
	err := d.walk(ctx, name, func(class string, X, Y *mat.Dense) error {
		if err := t.AddTrainingPoints(class, X, Y); err != nil {
			return err
		}
		r, _ := X.Dims()
		n += r
		return nil
	})
	if err != nil {
		return err
	}
	d.logger.Info("Dataset replayed", log.DatasetKey, name, log.SamplesKey, n)
	return nil
}

// Names lists saved dataset names in order.
func (d *DB) Names(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT dataset FROM points ORDER BY dataset`)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: query")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.Wrap(err, "dataset: scan")
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Delete removes the dataset saved under name.
func (d *DB) Delete(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, err := d.db.ExecContext(ctx, `DELETE FROM points WHERE dataset = ?`, name)
	if err != nil {
		return errors.Wrap(err, "dataset: delete")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "dataset %q", name)
	}
	return nil
}
