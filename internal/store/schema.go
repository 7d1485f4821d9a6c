package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/minimem/minimem/internal/config"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	hash TEXT NOT NULL,
	mtime INTEGER NOT NULL,
	size INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_source ON files(source);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	source TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	hash TEXT NOT NULL,
	model TEXT NOT NULL,
	text TEXT NOT NULL,
	embedding BLOB,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

CREATE TABLE IF NOT EXISTS embedding_cache (
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	provider_key TEXT NOT NULL,
	hash TEXT NOT NULL,
	embedding BLOB NOT NULL,
	dims INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (provider, model, provider_key, hash)
);
CREATE INDEX IF NOT EXISTS idx_embedding_cache_updated_at ON embedding_cache(updated_at);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	text,
	id UNINDEXED,
	path UNINDEXED,
	source UNINDEXED,
	model UNINDEXED,
	start_line UNINDEXED,
	end_line UNINDEXED
);
`

// migrate reads meta.schema_version and, if older than
// CurrentSchemaVersion, backs up the database file and drops+recreates
// files/chunks/chunks_fts while preserving embedding_cache and meta,
// per §4.2's migration contract.
func migrate(db *sql.DB, dbPath string) error {
	version, err := readSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= CurrentSchemaVersion {
		return nil
	}

	if dbPath != "" {
		backupPath, err := config.BackupFile(dbPath)
		if err != nil {
			return fmt.Errorf("backup index before migration: %w", err)
		}
		if backupPath != "" {
			slog.Info("index schema migration backup created",
				slog.String("from_version", fmt.Sprint(version)),
				slog.String("to_version", fmt.Sprint(CurrentSchemaVersion)),
				slog.String("backup_path", backupPath))
		}
	}

	statements := []string{
		`DROP TABLE IF EXISTS chunks_fts`,
		`DROP TABLE IF EXISTS chunks`,
		`DROP TABLE IF EXISTS files`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("drop stale table: %w", err)
		}
	}

	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("recreate base schema: %w", err)
	}

	return writeSchemaVersion(db, CurrentSchemaVersion)
}

func readSchemaVersion(db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		// meta table itself may not exist yet on a brand-new database.
		return 0, nil
	}
	var version int
	if _, err := fmt.Sscanf(raw, "%d", &version); err != nil {
		return 0, nil
	}
	return version, nil
}

func writeSchemaVersion(db *sql.DB, version int) error {
	_, err := db.Exec(
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprint(version))
	return err
}

// tryCreateFTS attempts to create the chunks_fts virtual table,
// returning whether FTS5 is available. A failure here (extension
// unavailable) degrades keyword search per §4.2/§4.5 rather than
// failing the whole store.
func tryCreateFTS(db *sql.DB) bool {
	if _, err := db.Exec(ftsSchema); err != nil {
		slog.Warn("fts5 unavailable, keyword search disabled", slog.String("error", err.Error()))
		return false
	}
	return true
}
