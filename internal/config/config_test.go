package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 300, cfg.ChunkTokens)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, "none", cfg.ProviderID)
	assert.Equal(t, 0.7, cfg.VectorWeight)
	assert.Equal(t, 0.3, cfg.TextWeight)
	assert.Equal(t, 60*time.Second, cfg.RemoteEmbedTimeout)
	assert.Equal(t, 5*time.Minute, cfg.LocalEmbedTimeout)
}

func TestBuilder_DefaultsOnly(t *testing.T) {
	root := t.TempDir()

	cfg, err := NewBuilder().mustOverlay(t, root).Build()
	require.NoError(t, err)
	assert.Equal(t, Defaults().ChunkTokens, cfg.ChunkTokens)
}

func TestBuilder_OverlayRoot_AppliesEngineJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".minimem"), 0o755))

	overlay := map[string]any{
		"chunkTokens":  500,
		"vectorWeight": 0.5,
		"textWeight":   0.5,
	}
	data, err := json.Marshal(overlay)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".minimem", "engine.json"), data, 0o644))

	b := NewBuilder()
	_, err = b.OverlayRoot(root)
	require.NoError(t, err)
	cfg, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkTokens)
	assert.Equal(t, 0.5, cfg.VectorWeight)
	assert.Equal(t, 0.5, cfg.TextWeight)
	// Unset fields retain defaults
	assert.Equal(t, Defaults().ChunkOverlap, cfg.ChunkOverlap)
}

func TestBuilder_OverlayRoot_MissingFileIsNotError(t *testing.T) {
	root := t.TempDir()

	b := NewBuilder()
	_, err := b.OverlayRoot(root)
	require.NoError(t, err)
}

func TestBuilder_OverlayRoot_InvalidJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".minimem"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".minimem", "engine.json"), []byte("{not json"), 0o644))

	b := NewBuilder()
	_, err := b.OverlayRoot(root)
	require.Error(t, err)
}

func TestBuilder_Override_HasHighestPrecedence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".minimem"), 0o755))
	data, _ := json.Marshal(map[string]any{"topK": 5})
	require.NoError(t, os.WriteFile(filepath.Join(root, ".minimem", "engine.json"), data, 0o644))

	b := NewBuilder()
	_, err := b.OverlayRoot(root)
	require.NoError(t, err)
	b.Override(func(c *EngineConfig) {
		c.TopK = 99
	})

	cfg, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.TopK)
}

func TestEngineConfig_Validate_RejectsBadWeights(t *testing.T) {
	cfg := Defaults()
	cfg.VectorWeight = 0.9
	cfg.TextWeight = 0.9
	assert.Error(t, cfg.Validate())
}

func TestEngineConfig_Validate_RejectsOverlapGEQTokens(t *testing.T) {
	cfg := Defaults()
	cfg.ChunkOverlap = cfg.ChunkTokens
	assert.Error(t, cfg.Validate())
}

func TestEngineConfig_Validate_RejectsEmptyProvider(t *testing.T) {
	cfg := Defaults()
	cfg.ProviderID = ""
	assert.Error(t, cfg.Validate())
}

func TestLoad_NoOverlay_ReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, Defaults().TopK, cfg.TopK)
}

func TestFindMemoryRoot_FindsMemoryMDMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "MEMORY.md"), []byte("# memory"), 0o644))
	nested := filepath.Join(root, "memory", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindMemoryRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindMemoryRoot_NoMarker_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := FindMemoryRoot(dir)
	assert.Error(t, err)
}

func TestSanitizeGlob_RejectsTraversal(t *testing.T) {
	_, err := SanitizeGlob("../../etc/passwd")
	assert.Error(t, err)
}

func TestSanitizeGlob_AcceptsNormalPattern(t *testing.T) {
	p, err := SanitizeGlob("  **/*.md  ")
	require.NoError(t, err)
	assert.Equal(t, "**/*.md", p)
}

// mustOverlay is a small test helper so the happy path reads fluently.
func (b *Builder) mustOverlay(t *testing.T, root string) *Builder {
	t.Helper()
	_, err := b.OverlayRoot(root)
	require.NoError(t, err)
	return b
}
