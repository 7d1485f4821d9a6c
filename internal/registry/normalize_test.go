package registry

import "testing"

func TestNormalizeCentralPath_AddsTrailingSlash(t *testing.T) {
	if got := NormalizeCentralPath("proj"); got != "proj/" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeCentralPath_RootStaysSlash(t *testing.T) {
	if got := NormalizeCentralPath(""); got != "/" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeCentralPath("/"); got != "/" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeCentralPath_IdempotentOnAlreadyNormalized(t *testing.T) {
	if got := NormalizeCentralPath("proj/"); got != "proj/" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeLocalPath_ExpandsAndCompressesHome(t *testing.T) {
	expanded := NormalizeLocalPathForComparison("~/code/proj")
	compressed := NormalizeLocalPathForStorage(expanded)
	if compressed != "~/code/proj" {
		t.Fatalf("got %q", compressed)
	}
}
