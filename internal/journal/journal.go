// Package journal keeps a SQLite record of simplify passes.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/meshlab/internal/logger"
	"github.com/Faultbox/meshlab/internal/simplify"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS passes (
	id               TEXT PRIMARY KEY,
	session_id       TEXT NOT NULL,
	asset            TEXT NOT NULL DEFAULT '',
	max_error        REAL NOT NULL,
	target           TEXT NOT NULL,
	options          TEXT NOT NULL DEFAULT '',
	sloppy           INTEGER NOT NULL DEFAULT 0,
	meshes           INTEGER NOT NULL DEFAULT 0,
	failures         INTEGER NOT NULL DEFAULT 0,
	positions_before INTEGER NOT NULL DEFAULT 0,
	positions_after  INTEGER NOT NULL DEFAULT 0,
	indices_before   INTEGER NOT NULL DEFAULT 0,
	indices_after    INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_passes_session ON passes(session_id, created_at);
`

// NewDB opens a SQLite database at path and runs the schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer; WAL still serves readers.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}

// Pass is one journaled simplify pass.
type Pass struct {
	ID        string
	SessionID string
	Asset     string
	MaxError  float32
	Target    string
	Options   string
	Sloppy    bool
	Meshes    int
	Failures  int
	Stats     simplify.Stats
	CreatedAt time.Time
}

// Journal appends passes for one session.
type Journal struct {
	db      *sql.DB
	session string
	now     func() time.Time
}

// Open opens (or creates) the journal at path and starts a new session.
func Open(path string) (*Journal, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	j := &Journal{db: db, session: uuid.NewString(), now: time.Now}
	logger.Info("journal opened", zap.String("path", path), zap.String("session", j.session))
	return j, nil
}

// Session returns the id shared by every pass recorded through j.
func (j *Journal) Session() string { return j.session }

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

// Record stores the outcome of a pass over asset.
func (j *Journal) Record(ctx context.Context, asset string, rep simplify.Report) (Pass, error) {
	p := Pass{
		ID:        uuid.NewString(),
		SessionID: j.session,
		Asset:     asset,
		MaxError:  rep.Params.MaxError,
		Target:    rep.Params.Target.String(),
		Options:   rep.Params.Options.String(),
		Sloppy:    rep.Params.Sloppy,
		Meshes:    rep.Meshes,
		Failures:  len(rep.Failures),
		Stats:     rep.Stats,
		CreatedAt: j.now(),
	}

	const q = `INSERT INTO passes (id, session_id, asset, max_error, target, options, sloppy, meshes, failures,
	positions_before, positions_after, indices_before, indices_after, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		p.ID,
		p.SessionID,
		p.Asset,
		p.MaxError,
		p.Target,
		p.Options,
		p.Sloppy,
		p.Meshes,
		p.Failures,
		p.Stats.PositionsBefore,
		p.Stats.PositionsAfter,
		p.Stats.IndicesBefore,
		p.Stats.IndicesAfter,
		p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Pass{}, fmt.Errorf("record pass: %w", err)
	}
	return p, nil
}

// List returns up to limit passes, newest first. A limit of zero or less
// returns every pass.
func (j *Journal) List(ctx context.Context, limit int) ([]Pass, error) {
	if limit <= 0 {
		limit = -1
	}
	const q = `SELECT id, session_id, asset, max_error, target, options, sloppy, meshes, failures,
	positions_before, positions_after, indices_before, indices_after, created_at
FROM passes
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

	rows, err := j.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var (
			p       Pass
			created int64
		)
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Asset, &p.MaxError, &p.Target, &p.Options, &p.Sloppy,
			&p.Meshes, &p.Failures,
			&p.Stats.PositionsBefore, &p.Stats.PositionsAfter, &p.Stats.IndicesBefore, &p.Stats.IndicesAfter,
			&created); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.CreatedAt = time.Unix(0, created)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}
