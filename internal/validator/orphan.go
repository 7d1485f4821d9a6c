package validator

import (
	"os"
	"strings"

	"github.com/minimem/minimem/internal/registry"
)

// findOrphans implements the spec's open-ended "Orphan" slot (§4.11):
// a top-level directory under the central repo root that exists on
// disk but has no registry mapping at all. Reported at info severity
// since it blocks nothing — it just helps an operator spot drift
// between what's on disk and what's registered.
func findOrphans(centralRoot string, reg *registry.Registry) []Issue {
	entries, err := os.ReadDir(centralRoot)
	if err != nil {
		return nil
	}

	mapped := make(map[string]bool, len(reg.Mappings))
	for _, m := range reg.Mappings {
		mapped[m.CentralPath] = true
	}

	var issues []Issue
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		centralPath := registry.NormalizeCentralPath(e.Name())
		if mapped[centralPath] {
			continue
		}
		issues = append(issues, Issue{
			Severity:    SeverityInfo,
			Kind:        KindOrphan,
			CentralPath: centralPath,
			Detail:      "present under the central repo with no registry mapping",
		})
	}
	return issues
}
