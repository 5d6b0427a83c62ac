package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"trepro/internal/codec"
	"trepro/internal/config"
	"trepro/internal/provenance"
)

// Entry is one cataloged framed file.
type Entry struct {
	ID              string
	Path            string
	Title           string
	Extension       string
	SaveVersion     string
	ProducerVersion string
	GitHash         string
	GitRemote       string
	PayloadBytes    int64
	FileBytes       int64
	Metadata        map[string]string
	RecordedAt      time.Time
}

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenFromConfig opens the catalog configured in [catalog].
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("catalog: config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return Open(cfg.Catalog.Path)
}

// Open initializes or connects to the catalog database.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("catalog: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewEntry builds an entry from a file path and its flattened metadata.
func NewEntry(path, title string, meta map[string]string) Entry {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Entry{
		Path:            abs,
		Title:           title,
		Extension:       strings.ToLower(filepath.Ext(path)),
		SaveVersion:     meta[codec.KeySaveVersion],
		ProducerVersion: meta[codec.KeyProducerVersion],
		GitHash:         meta[provenance.KeyGitHash],
		GitRemote:       meta[provenance.KeyGitRemote],
		Metadata:        meta,
	}
}

// Record inserts or replaces the entry for entry.Path. An existing entry keeps
// its identifier.
func (s *Store) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if strings.TrimSpace(entry.Path) == "" {
		return nil, errors.New("catalog: entry path is empty")
	}
	if entry.SaveVersion == "" {
		return nil, errors.New("catalog: entry save version is empty")
	}
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO entries (
            id, path, title, extension, save_version, producer_version,
            git_hash, git_remote, payload_bytes, file_bytes, metadata_json, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            title = excluded.title,
            extension = excluded.extension,
            save_version = excluded.save_version,
            producer_version = excluded.producer_version,
            git_hash = excluded.git_hash,
            git_remote = excluded.git_remote,
            payload_bytes = excluded.payload_bytes,
            file_bytes = excluded.file_bytes,
            metadata_json = excluded.metadata_json,
            recorded_at = excluded.recorded_at`,
		uuid.NewString(),
		entry.Path,
		nullableString(entry.Title),
		nullableString(entry.Extension),
		entry.SaveVersion,
		nullableString(entry.ProducerVersion),
		nullableString(entry.GitHash),
		nullableString(entry.GitRemote),
		entry.PayloadBytes,
		entry.FileBytes,
		string(metadataJSON),
		entry.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("record entry: %w", err)
	}
	return s.Get(ctx, entry.Path)
}

// Get returns the entry for path, or nil when it is not cataloged.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE path = ?`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns every entry, oldest first.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY recorded_at, path`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindByCommit returns entries produced from the given commit hash prefix.
func (s *Store) FindByCommit(ctx context.Context, hashPrefix string) ([]*Entry, error) {
	hashPrefix = strings.TrimSpace(hashPrefix)
	if hashPrefix == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE git_hash LIKE ? ORDER BY recorded_at, path`,
		hashPrefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find by commit: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Forget removes the entry for path. It reports whether one existed.
func (s *Store) Forget(ctx context.Context, path string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("forget entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const entryColumns = "id, path, title, extension, save_version, producer_version, git_hash, git_remote, payload_bytes, file_bytes, metadata_json, recorded_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id          string
		path        string
		title       sql.NullString
		extension   sql.NullString
		saveVersion string
		producer    sql.NullString
		gitHash     sql.NullString
		gitRemote   sql.NullString
		payload     int64
		fileBytes   int64
		metadata    string
		recordedRaw string
	)
	if err := scanner.Scan(
		&id,
		&path,
		&title,
		&extension,
		&saveVersion,
		&producer,
		&gitHash,
		&gitRemote,
		&payload,
		&fileBytes,
		&metadata,
		&recordedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:              id,
		Path:            path,
		Title:           title.String,
		Extension:       extension.String,
		SaveVersion:     saveVersion,
		ProducerVersion: producer.String,
		GitHash:         gitHash.String,
		GitRemote:       gitRemote.String,
		PayloadBytes:    payload,
		FileBytes:       fileBytes,
		Metadata:        map[string]string{},
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", path, err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, recordedRaw); err == nil {
		entry.RecordedAt = ts
	}
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
