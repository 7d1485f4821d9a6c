package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_EmbedQuery_Deterministic(t *testing.T) {
	s := NewStatic()
	ctx := context.Background()

	a, err := s.EmbedQuery(ctx, "hello world")
	require.NoError(t, err)
	b, err := s.EmbedQuery(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, StaticDimensions)
}

func TestStatic_EmbedQuery_EmptyTextYieldsZeroVector(t *testing.T) {
	s := NewStatic()
	vec, err := s.EmbedQuery(context.Background(), "   ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStatic_EmbedBatch_PreservesOrder(t *testing.T) {
	s := NewStatic()
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	batch, err := s.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := s.EmbedQuery(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestNone_ReturnsEmptyVectors(t *testing.T) {
	p := None{}
	ctx := context.Background()

	vec, err := p.EmbedQuery(ctx, "anything")
	require.NoError(t, err)
	assert.Nil(t, vec)

	batch, err := p.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Nil(t, batch[0])
	assert.Nil(t, batch[1])

	assert.Equal(t, "none", p.ID())
}

func TestComputeProviderKey_StableForSameInputs(t *testing.T) {
	k1 := ComputeProviderKey("openai", "text-embedding-3-small", "https://api.openai.com")
	k2 := ComputeProviderKey("openai", "text-embedding-3-small", "https://api.openai.com")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	k3 := ComputeProviderKey("openai", "text-embedding-3-large", "https://api.openai.com")
	assert.NotEqual(t, k1, k3)
}
