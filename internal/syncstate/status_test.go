package syncstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_BothEmptyIsUnchanged(t *testing.T) {
	assert.Equal(t, Unchanged, Classify("", ""))
}

func TestClassify_EqualHashesIsUnchanged(t *testing.T) {
	assert.Equal(t, Unchanged, Classify("abc", "abc"))
}

func TestClassify_EmptyRemoteIsLocalOnly(t *testing.T) {
	assert.Equal(t, LocalOnly, Classify("abc", ""))
}

func TestClassify_EmptyLocalIsRemoteOnly(t *testing.T) {
	assert.Equal(t, RemoteOnly, Classify("", "abc"))
}

func TestClassify_DifferentNonEmptyIsLocalModified(t *testing.T) {
	assert.Equal(t, LocalModified, Classify("abc", "def"))
}
