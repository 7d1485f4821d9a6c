package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	minierrors "github.com/minimem/minimem/internal/errors"
)

// Store is the persistent index for one memory root: index.db (files,
// chunks, embedding_cache, meta, and optionally chunks_fts) plus an
// HNSW vector sidecar (index.hnsw), per §4.2.
type Store struct {
	mu sync.RWMutex

	db     *sql.DB
	dbPath string

	ftsAvailable bool

	vecPath      string
	vec          VectorStore
	vecAvailable bool

	closed bool
}

// Open opens (creating if necessary) the store rooted at <root>/.minimem.
func Open(root string) (*Store, error) {
	dir := filepath.Join(root, ".minimem")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, minierrors.IOError("create .minimem directory", err)
	}
	dbPath := filepath.Join(dir, "index.db")

	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, minierrors.IOError("open index.db", err)
	}
	db.SetMaxOpenConns(1) // single writer, per §4.2/§5
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = OFF",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, minierrors.IOError("set pragma: "+p, err)
		}
	}

	if err := migrate(db, dbPath); err != nil {
		db.Close()
		return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "migrate index schema", err)
	}

	s := &Store{
		db:           db,
		dbPath:       dbPath,
		ftsAvailable: tryCreateFTS(db),
		vecPath:      filepath.Join(dir, "index.hnsw"),
	}

	dims, err := VectorSidecarDimensions(s.vecPath)
	if err == nil && dims > 0 {
		vec, err := NewHNSWStore(DefaultVectorStoreConfig(dims))
		if err == nil && vec.Load(s.vecPath) == nil {
			s.vec = vec
			s.vecAvailable = true
		}
	}

	return s, nil
}

// FTSAvailable reports whether keyword search is usable.
func (s *Store) FTSAvailable() bool { return s.ftsAvailable }

// VectorAvailable reports whether the HNSW vector sidecar is loaded
// and its dimensions are known.
func (s *Store) VectorAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vecAvailable
}

// EnsureVectorStore lazily creates the HNSW sidecar once the embedding
// dimensionality D is known (§4.2's "created lazily once D is known").
func (s *Store) EnsureVectorStore(dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vecAvailable {
		return nil
	}
	vec, err := NewHNSWStore(DefaultVectorStoreConfig(dims))
	if err != nil {
		return minierrors.InternalError("create vector store", err)
	}
	s.vec = vec
	s.vecAvailable = true
	return nil
}

// Vector returns the vector store, or nil if not yet available.
func (s *Store) Vector() VectorStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vec
}

// Close persists the vector sidecar (whenever one is loaded) and closes
// the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.vecAvailable && s.vec != nil {
		if err := s.vec.Save(s.vecPath); err != nil {
			return minierrors.IOError("save vector sidecar", err)
		}
		if err := s.vec.Close(); err != nil {
			return minierrors.IOError("close vector store", err)
		}
	}
	return s.db.Close()
}

// --- meta -------------------------------------------------------------

// GetMeta loads the index meta row. ok is false if it has never been written.
func (s *Store) GetMeta(ctx context.Context) (m *Meta, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'index_meta'`)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, minierrors.New(minierrors.ErrCodeStoreFailed, "read index meta", err)
	}

	meta := &Meta{SchemaVersion: CurrentSchemaVersion}
	for _, field := range strings.Split(raw, "\x1f") {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "provider":
			meta.Provider = kv[1]
		case "model":
			meta.Model = kv[1]
		case "provider_key":
			meta.ProviderKey = kv[1]
		case "chunk_tokens":
			meta.ChunkTokens, _ = strconv.Atoi(kv[1])
		case "chunk_overlap":
			meta.ChunkOverlap, _ = strconv.Atoi(kv[1])
		case "vector_dims":
			meta.VectorDims, _ = strconv.Atoi(kv[1])
		}
	}
	return meta, true, nil
}

// SetMeta upserts the index meta row.
func (s *Store) SetMeta(ctx context.Context, m *Meta) error {
	raw := fmt.Sprintf("provider=%s\x1fmodel=%s\x1fprovider_key=%s\x1fchunk_tokens=%d\x1fchunk_overlap=%d\x1fvector_dims=%d",
		m.Provider, m.Model, m.ProviderKey, m.ChunkTokens, m.ChunkOverlap, m.VectorDims)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES ('index_meta', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, raw)
	if err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "write index meta", err)
	}
	return nil
}

// --- files --------------------------------------------------------------

// GetFile returns the stored record for path, or ok=false if untracked.
func (s *Store) GetFile(ctx context.Context, path string) (rec *FileRecord, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, source, hash, mtime, size FROM files WHERE path = ?`, path)
	var f FileRecord
	if err := row.Scan(&f.Path, &f.Source, &f.Hash, &f.MTime, &f.Size); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, minierrors.New(minierrors.ErrCodeStoreFailed, "read file record", err)
	}
	return &f, true, nil
}

// ListFiles returns all tracked file records, for prune and staleness checks.
func (s *Store) ListFiles(ctx context.Context) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, source, hash, mtime, size FROM files`)
	if err != nil {
		return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "list files", err)
	}
	defer rows.Close()

	var out []*FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Source, &f.Hash, &f.MTime, &f.Size); err != nil {
			return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "scan file record", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func upsertFileTx(ctx context.Context, tx *sql.Tx, f *FileRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO files(path, source, hash, mtime, size) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET source = excluded.source, hash = excluded.hash,
		   mtime = excluded.mtime, size = excluded.size`,
		f.Path, f.Source, f.Hash, f.MTime, f.Size)
	return err
}

// ReplaceFileChunks atomically upserts a file's record and replaces all
// of its chunks (and their FTS rows), per §4.4 step 3.
func (s *Store) ReplaceFileChunks(ctx context.Context, f *FileRecord, chunks []*ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "begin transaction", err)
	}
	defer tx.Rollback()

	if err := upsertFileTx(ctx, tx, f); err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "upsert file", err)
	}

	if err := deleteChunksForPathTx(ctx, tx, f.Path, s.ftsAvailable); err != nil {
		return err
	}

	for _, c := range chunks {
		if err := insertChunkTx(ctx, tx, c, s.ftsAvailable); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "commit transaction", err)
	}

	if s.vecAvailable && s.vec != nil {
		ids := make([]string, 0, len(chunks))
		vectors := make([][]float32, 0, len(chunks))
		for _, c := range chunks {
			if len(c.Embedding) > 0 {
				ids = append(ids, c.ID)
				vectors = append(vectors, c.Embedding)
			}
		}
		if len(ids) > 0 {
			if err := s.vec.Add(ctx, ids, vectors); err != nil {
				return minierrors.InternalError("update vector sidecar", err)
			}
		}
	}

	return nil
}

func deleteChunksForPathTx(ctx context.Context, tx *sql.Tx, path string, fts bool) error {
	if fts {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks_fts WHERE path = ?`, path); err != nil {
			return minierrors.New(minierrors.ErrCodeStoreFailed, "delete stale fts rows", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path); err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "delete stale chunks", err)
	}
	return nil
}

func insertChunkTx(ctx context.Context, tx *sql.Tx, c *ChunkRecord, fts bool) error {
	var embedding []byte
	if len(c.Embedding) > 0 {
		embedding = encodeEmbedding(c.Embedding)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO chunks(id, path, source, start_line, end_line, hash, model, text, embedding, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Path, c.Source, c.StartLine, c.EndLine, c.Hash, c.Model, c.Text, embedding, c.UpdatedAt)
	if err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "insert chunk", err)
	}

	if fts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chunks_fts(text, id, path, source, model, start_line, end_line) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.Text, c.ID, c.Path, c.Source, c.Model, c.StartLine, c.EndLine)
		if err != nil {
			return minierrors.New(minierrors.ErrCodeStoreFailed, "insert fts row", err)
		}
	}
	return nil
}

// DeleteFile removes a file and its chunks (FTS and vector rows included),
// per §4.4 step 4 (pruning files absent from the current enumeration).
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.chunkIDsForPath(ctx, path)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "begin transaction", err)
	}
	defer tx.Rollback()

	if err := deleteChunksForPathTx(ctx, tx, path, s.ftsAvailable); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "delete file", err)
	}
	if err := tx.Commit(); err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "commit transaction", err)
	}

	if s.vecAvailable && s.vec != nil && len(ids) > 0 {
		if err := s.vec.Delete(ctx, ids); err != nil {
			return minierrors.InternalError("delete from vector sidecar", err)
		}
	}
	return nil
}

func (s *Store) chunkIDsForPath(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE path = ?`, path)
	if err != nil {
		return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "list chunk ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "scan chunk id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- keyword search -------------------------------------------------------

// SearchFTS runs the conjunctive FTS5 query built from tokens, filtered to
// the current model, per §4.5.1.
func (s *Store) SearchFTS(ctx context.Context, tokens []string, model string, limit int) ([]*BM25Result, error) {
	if !s.ftsAvailable || len(tokens) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, "") + `"`
	}
	matchQuery := strings.Join(quoted, " AND ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bm25(chunks_fts) AS rank FROM chunks_fts
		 WHERE chunks_fts MATCH ? AND model = ?
		 ORDER BY rank ASC LIMIT ?`,
		matchQuery, model, limit)
	if err != nil {
		return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "fts search", err)
	}
	defer rows.Close()

	var out []*BM25Result
	for rows.Next() {
		var r BM25Result
		if err := rows.Scan(&r.ChunkID, &r.Rank); err != nil {
			return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "scan fts result", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- vector search fallback -------------------------------------------------

// BruteForceVectorSearch scans all embedded chunks for the current model
// and returns the top-k by cosine similarity, used when the HNSW
// sidecar isn't available (§4.5.2's fallback path).
func (s *Store) BruteForceVectorSearch(ctx context.Context, query []float32, model string, k int) ([]*VectorResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, embedding FROM chunks WHERE model = ? AND embedding IS NOT NULL`, model)
	if err != nil {
		return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "scan chunks for vector search", err)
	}
	defer rows.Close()

	type scored struct {
		id    string
		score float64
	}
	var scoredAll []scored
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "scan chunk embedding", err)
		}
		vec := decodeEmbedding(blob)
		sim := cosineSimilarity(query, vec)
		if math.IsNaN(sim) || math.IsInf(sim, 0) {
			continue
		}
		scoredAll = append(scoredAll, scored{id: id, score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, minierrors.New(minierrors.ErrCodeStoreFailed, "iterate chunk embeddings", err)
	}

	sortScoredDesc(scoredAll)
	if k > 0 && len(scoredAll) > k {
		scoredAll = scoredAll[:k]
	}

	out := make([]*VectorResult, len(scoredAll))
	for i, sc := range scoredAll {
		out[i] = &VectorResult{ChunkID: sc.id, Distance: float32(1 - sc.score)}
	}
	return out, nil
}

func sortScoredDesc(s []struct {
	id    string
	score float64
}) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// GetChunkMeta returns a chunk's stored path, source tag, text, and
// line range, used by the searcher to assemble snippets and apply the
// optional per-source filter.
func (s *Store) GetChunkMeta(ctx context.Context, id string) (path, source, text string, startLine, endLine int, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, source, text, start_line, end_line FROM chunks WHERE id = ?`, id)
	if err := row.Scan(&path, &source, &text, &startLine, &endLine); err != nil {
		return "", "", "", 0, 0, minierrors.New(minierrors.ErrCodeStoreFailed, "read chunk meta", err)
	}
	return path, source, text, startLine, endLine, nil
}

// CountChunks returns the total number of chunk rows, for status
// reporting.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`)
	if err := row.Scan(&n); err != nil {
		return 0, minierrors.New(minierrors.ErrCodeStoreFailed, "count chunks", err)
	}
	return n, nil
}

// CountCacheEntries returns the total number of embedding cache rows,
// for status reporting.
func (s *Store) CountCacheEntries(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`)
	if err := row.Scan(&n); err != nil {
		return 0, minierrors.New(minierrors.ErrCodeStoreFailed, "count cache entries", err)
	}
	return n, nil
}

// --- embedding encoding ---------------------------------------------------

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(b []byte) []float32 {
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
