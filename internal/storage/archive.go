package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no archived chart has the requested ID.
var ErrNotFound = errors.New("chart not found")

const schema = `
CREATE TABLE IF NOT EXISTS charts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	birth      TEXT NOT NULL,
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	created_at TEXT NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_charts_name ON charts(name);
`

// Entry is one archive listing row.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Birth     time.Time `json:"birth"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"` // compressed payload bytes
}

type entryRow struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Birth     string  `db:"birth"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	CreatedAt string  `db:"created_at"`
	Size      int64   `db:"size"`
}

func (r entryRow) entry() Entry {
	e := Entry{ID: r.ID, Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude, Size: r.Size}
	e.Birth, _ = time.Parse(time.RFC3339, r.Birth)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	return e
}

// Archive stores chart snapshots in SQLite, zstd-compressed.
type Archive struct {
	db     *sqlx.DB
	logger *slog.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	now    func() time.Time
}

// OpenArchive opens or creates the archive at path.
func OpenArchive(path string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// Pragmas apply per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	logger.Debug("chart archive opened", "path", path)
	return &Archive{db: db, logger: logger, enc: enc, dec: dec, now: time.Now}, nil
}

// Close releases the database and codecs.
func (a *Archive) Close() error {
	a.dec.Close()
	if err := a.enc.Close(); err != nil {
		a.db.Close()
		return err
	}
	return a.db.Close()
}

// Put stores rec under a new ID and returns it.
func (a *Archive) Put(ctx context.Context, rec *Record) (string, error) {
	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	payload := a.enc.EncodeAll(buf.Bytes(), nil)

	birth := ""
	if t, err := rec.DateTime(); err == nil {
		birth = t.Format(time.RFC3339)
	}
	lat, lon := rec.Location()
	id := uuid.New().String()

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO charts (id, name, birth, latitude, longitude, created_at, payload) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, rec.Name(), birth, lat, lon, a.now().UTC().Format(time.RFC3339Nano), payload,
	)
	if err != nil {
		return "", fmt.Errorf("insert chart: %w", err)
	}
	a.logger.Info("chart archived", "id", id, "name", rec.Name(), "bytes", len(payload))
	return id, nil
}

// Get returns the archived record with the given ID.
func (a *Archive) Get(ctx context.Context, id string) (*Record, error) {
	var payload []byte
	err := a.db.GetContext(ctx, &payload, "SELECT payload FROM charts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select chart: %w", err)
	}
	raw, err := a.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chart %s: %w", id, err)
	}
	return Decode(bytes.NewReader(raw))
}

// List returns every archived chart, newest first. A non-empty name filters
// by exact name.
func (a *Archive) List(ctx context.Context, name string) ([]Entry, error) {
	query := "SELECT id, name, birth, latitude, longitude, created_at, length(payload) AS size FROM charts"
	var args []any
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY created_at DESC, id"

	var rows []entryRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// Delete removes the chart with the given ID.
func (a *Archive) Delete(ctx context.Context, id string) error {
	res, err := a.db.ExecContext(ctx, "DELETE FROM charts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chart: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
