// Package config builds the validated EngineConfig that every indexing,
// search, and sync operation runs against. Per the Design Note on
// dynamic-config layering, configuration is assembled by an explicit
// three-step Builder rather than a deep-merge of duck-typed maps:
// defaults -> per-root <R>/.minimem/engine.json overlay -> caller overrides.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EngineConfig is the fully resolved, validated configuration for a
// single memory root. It is plain and JSON-serializable; it is not the
// same schema as <R>/.minimem/config.json, which is owned and written
// by the external CLI collaborator. EngineConfig only reads defaults
// from an optional engine.json sidecar the collaborator may drop next
// to it.
type EngineConfig struct {
	// Chunking
	ChunkTokens  int `json:"chunkTokens"`
	ChunkOverlap int `json:"chunkOverlap"`

	// Embedding provider identity, used to compute the provider-key and
	// to detect a provider/model change that forces a full re-index.
	ProviderID string `json:"providerId"`
	Model      string `json:"model"`
	BaseURL    string `json:"baseUrl"`
	BatchSize  int    `json:"batchSize"`

	// Embedding call timeouts, per §4.5.2.
	RemoteEmbedTimeout time.Duration `json:"remoteEmbedTimeout"`
	LocalEmbedTimeout  time.Duration `json:"localEmbedTimeout"`

	// Search
	VectorWeight float64 `json:"vectorWeight"`
	TextWeight   float64 `json:"textWeight"`
	Candidates   int     `json:"candidates"`
	TopK         int     `json:"topK"`
	MinScore     float64 `json:"minScore"`

	// Embedding cache
	CacheMaxEntries int `json:"cacheMaxEntries"`
	CacheLRUSize    int `json:"cacheLRUSize"`

	// Watcher
	WatchDebounce   time.Duration `json:"watchDebounce"`
	StabilityWindow time.Duration `json:"stabilityWindow"`
	IncludeGlobs    []string      `json:"includeGlobs"`
	ExcludeGlobs    []string      `json:"excludeGlobs"`

	// Daemon / staleness
	StalenessPollInterval time.Duration `json:"stalenessPollInterval"`
}

// Defaults returns the hardcoded baseline EngineConfig. Step 1 of the
// three-step builder.
func Defaults() EngineConfig {
	return EngineConfig{
		ChunkTokens:  300,
		ChunkOverlap: 50,

		ProviderID: "none",
		Model:      "",
		BaseURL:    "",
		BatchSize:  32,

		RemoteEmbedTimeout: 60 * time.Second,
		LocalEmbedTimeout:  5 * time.Minute,

		VectorWeight: 0.7,
		TextWeight:   0.3,
		Candidates:   50,
		TopK:         10,
		MinScore:     0.0,

		CacheMaxEntries: 50000,
		CacheLRUSize:    500,

		WatchDebounce:   300 * time.Millisecond,
		StabilityWindow: 500 * time.Millisecond,
		IncludeGlobs:    []string{"**/*.md"},
		ExcludeGlobs:    []string{"**/.minimem/**"},

		StalenessPollInterval: 30 * time.Second,
	}
}

// overlayFile is the subset of EngineConfig an engine.json sidecar may
// override. Fields are pointers so an absent key leaves the default
// untouched, matching the typed overlay the Design Note calls for
// (never a deep-merge of duck-typed maps).
type overlayFile struct {
	ChunkTokens  *int `json:"chunkTokens"`
	ChunkOverlap *int `json:"chunkOverlap"`

	ProviderID *string `json:"providerId"`
	Model      *string `json:"model"`
	BaseURL    *string `json:"baseUrl"`
	BatchSize  *int    `json:"batchSize"`

	VectorWeight *float64 `json:"vectorWeight"`
	TextWeight   *float64 `json:"textWeight"`
	Candidates   *int     `json:"candidates"`
	TopK         *int     `json:"topK"`
	MinScore     *float64 `json:"minScore"`

	CacheMaxEntries *int `json:"cacheMaxEntries"`
	CacheLRUSize    *int `json:"cacheLRUSize"`

	WatchDebounceMS   *int64   `json:"watchDebounceMs"`
	StabilityWindowMS *int64   `json:"stabilityWindowMs"`
	IncludeGlobs      []string `json:"includeGlobs"`
	ExcludeGlobs      []string `json:"excludeGlobs"`
}

// Builder assembles an EngineConfig in three explicit steps.
type Builder struct {
	cfg EngineConfig
}

// NewBuilder starts from hardcoded defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: Defaults()}
}

// OverlayRoot overlays <root>/.minimem/engine.json onto the current
// config, if the file exists. A missing file is not an error.
func (b *Builder) OverlayRoot(root string) (*Builder, error) {
	path := filepath.Join(root, ".minimem", "engine.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return b, fmt.Errorf("read engine overlay %s: %w", path, err)
	}

	var overlay overlayFile
	if err := json.Unmarshal(data, &overlay); err != nil {
		return b, fmt.Errorf("parse engine overlay %s: %w", path, err)
	}
	b.applyOverlay(overlay)
	return b, nil
}

// Override applies explicit caller overrides — the programmatic
// options a CLI or MCP-style caller would pass in. Step 3, highest
// precedence.
func (b *Builder) Override(fn func(*EngineConfig)) *Builder {
	if fn != nil {
		fn(&b.cfg)
	}
	return b
}

func (b *Builder) applyOverlay(o overlayFile) {
	if o.ChunkTokens != nil {
		b.cfg.ChunkTokens = *o.ChunkTokens
	}
	if o.ChunkOverlap != nil {
		b.cfg.ChunkOverlap = *o.ChunkOverlap
	}
	if o.ProviderID != nil {
		b.cfg.ProviderID = *o.ProviderID
	}
	if o.Model != nil {
		b.cfg.Model = *o.Model
	}
	if o.BaseURL != nil {
		b.cfg.BaseURL = *o.BaseURL
	}
	if o.BatchSize != nil {
		b.cfg.BatchSize = *o.BatchSize
	}
	if o.VectorWeight != nil {
		b.cfg.VectorWeight = *o.VectorWeight
	}
	if o.TextWeight != nil {
		b.cfg.TextWeight = *o.TextWeight
	}
	if o.Candidates != nil {
		b.cfg.Candidates = *o.Candidates
	}
	if o.TopK != nil {
		b.cfg.TopK = *o.TopK
	}
	if o.MinScore != nil {
		b.cfg.MinScore = *o.MinScore
	}
	if o.CacheMaxEntries != nil {
		b.cfg.CacheMaxEntries = *o.CacheMaxEntries
	}
	if o.CacheLRUSize != nil {
		b.cfg.CacheLRUSize = *o.CacheLRUSize
	}
	if o.WatchDebounceMS != nil {
		b.cfg.WatchDebounce = time.Duration(*o.WatchDebounceMS) * time.Millisecond
	}
	if o.StabilityWindowMS != nil {
		b.cfg.StabilityWindow = time.Duration(*o.StabilityWindowMS) * time.Millisecond
	}
	if len(o.IncludeGlobs) > 0 {
		b.cfg.IncludeGlobs = o.IncludeGlobs
	}
	if len(o.ExcludeGlobs) > 0 {
		b.cfg.ExcludeGlobs = o.ExcludeGlobs
	}
}

// Build validates and returns the final EngineConfig.
func (b *Builder) Build() (EngineConfig, error) {
	if err := b.cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return b.cfg, nil
}

// Validate checks invariants on the assembled config.
func (c *EngineConfig) Validate() error {
	if c.ChunkTokens <= 0 {
		return fmt.Errorf("chunkTokens must be positive, got %d", c.ChunkTokens)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkTokens {
		return fmt.Errorf("chunkOverlap must be in [0, chunkTokens), got %d", c.ChunkOverlap)
	}
	if c.VectorWeight < 0 || c.VectorWeight > 1 {
		return fmt.Errorf("vectorWeight must be between 0 and 1, got %f", c.VectorWeight)
	}
	if c.TextWeight < 0 || c.TextWeight > 1 {
		return fmt.Errorf("textWeight must be between 0 and 1, got %f", c.TextWeight)
	}
	if sum := c.VectorWeight + c.TextWeight; math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("vectorWeight + textWeight must equal 1.0, got %.2f", sum)
	}
	if c.Candidates <= 0 {
		return fmt.Errorf("candidates must be positive, got %d", c.Candidates)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("topK must be positive, got %d", c.TopK)
	}
	if c.ProviderID == "" {
		return fmt.Errorf("providerId must not be empty (use \"none\" for keyword-only)")
	}
	return nil
}

// Load runs the full three-step build for a memory root with no
// additional caller overrides. Convenience wrapper over Builder for
// the common case.
func Load(root string) (EngineConfig, error) {
	b := NewBuilder()
	if _, err := b.OverlayRoot(root); err != nil {
		return EngineConfig{}, err
	}
	return b.Build()
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// looksLikeMemoryRoot reports whether dir has the minimal layout of a
// memory root (a MEMORY.md file).
func looksLikeMemoryRoot(dir string) bool {
	return fileExists(filepath.Join(dir, "MEMORY.md"))
}

// FindMemoryRoot walks up from startDir looking for a MEMORY.md or a
// .minimem directory, mirroring the teacher's project-root discovery but scoped to the
// memory-root marker file instead of .git.
func FindMemoryRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if looksLikeMemoryRoot(currentDir) {
			return currentDir, nil
		}
		if dirExists(filepath.Join(currentDir, ".minimem")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", fmt.Errorf("no memory root found above %s", absDir)
		}
		currentDir = parentDir
	}
}

// SanitizeGlob trims surrounding whitespace and rejects empty and
// path-traversal patterns. No non-test code in this module calls it;
// config.json's glob lists are used as read.
func SanitizeGlob(pattern string) (string, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return "", fmt.Errorf("empty glob pattern")
	}
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("glob pattern must not contain '..': %s", pattern)
	}
	return p, nil
}
