package watcher

import "testing"

func TestMatches_ExcludesMinimemDirRegardlessOfPatterns(t *testing.T) {
	if matches(".minimem/index.db", nil, nil) {
		t.Fatal("expected .minimem/ path to be excluded")
	}
}

func TestMatches_EmptyIncludeMatchesEverythingNotExcluded(t *testing.T) {
	if !matches("MEMORY.md", nil, nil) {
		t.Fatal("expected path to match with empty include/exclude")
	}
}

func TestMatches_ExcludeWinsOverInclude(t *testing.T) {
	if matches("memory/draft.md", []string{"memory/*.md"}, []string{"memory/draft.md"}) {
		t.Fatal("expected exclude to win over include")
	}
}

func TestMatches_IncludeRestrictsToPattern(t *testing.T) {
	if matches("notes.txt", []string{"*.md"}, nil) {
		t.Fatal("expected .txt path to be rejected by *.md include")
	}
	if !matches("notes.md", []string{"*.md"}, nil) {
		t.Fatal("expected .md path to match *.md include")
	}
}

func TestMatches_DoubleStarIncludesNestedPaths(t *testing.T) {
	if !matches("memory/2026/08/notes.md", []string{"memory/**/*.md"}, nil) {
		t.Fatal("expected doublestar include to match nested path")
	}
}
