// Package validator implements the registry-wide health checks from
// §4.11: collision, stale, missing, and orphan detection across every
// mapping in a central registry.
package validator

import (
	"os"
	"time"

	"github.com/minimem/minimem/internal/registry"
)

const staleAfter = 30 * 24 * time.Hour

// Severity distinguishes a blocking finding from an informational one.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
	SeverityInfo  Severity = "info"
)

// Kind names the check that produced an Issue.
type Kind string

const (
	KindCollision Kind = "collision"
	KindStale     Kind = "stale"
	KindMissing   Kind = "missing"
	KindOrphan    Kind = "orphan"
)

// Issue is one finding against the registry.
type Issue struct {
	Severity    Severity `json:"severity"`
	Kind        Kind     `json:"kind"`
	CentralPath string   `json:"centralPath"`
	Detail      string   `json:"detail"`
}

// Stats summarizes the mapping set a report was run against.
type Stats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Stale      int `json:"stale"`
	Collisions int `json:"collisions"`
	Missing    int `json:"missing"`
}

// Report is the full validator output, per §4.11: valid iff no
// error-level issue is present.
type Report struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
	Stats  Stats   `json:"stats"`
}

// Validate runs every check in §4.11 against reg, scoped to
// thisMachineID for the missing-local-dir check, and optionally
// against centralRoot's on-disk sub-directories for the orphan check
// (skipped if centralRoot is empty).
func Validate(reg *registry.Registry, thisMachineID, centralRoot string, now time.Time) *Report {
	report := &Report{Valid: true}
	report.Stats.Total = len(reg.Mappings)

	collisionGroups := groupByCentralPath(reg.Mappings)
	seenCollision := make(map[string]bool)

	for _, m := range reg.Mappings {
		if len(collisionGroups[m.CentralPath]) > 1 {
			if !seenCollision[m.CentralPath] {
				seenCollision[m.CentralPath] = true
				report.Stats.Collisions++
				machines := machineIDsIn(collisionGroups[m.CentralPath])
				report.Issues = append(report.Issues, Issue{
					Severity:    SeverityError,
					Kind:        KindCollision,
					CentralPath: m.CentralPath,
					Detail:      "mapped under multiple machine-ids: " + joinComma(machines),
				})
				report.Valid = false
			}
			continue
		}

		if m.LastSync == nil || now.Sub(*m.LastSync) > staleAfter {
			report.Stats.Stale++
			report.Issues = append(report.Issues, Issue{
				Severity:    SeverityWarn,
				Kind:        KindStale,
				CentralPath: m.CentralPath,
				Detail:      "last sync older than 30 days or never synced",
			})
		} else {
			report.Stats.Active++
		}

		if m.MachineID == thisMachineID {
			if _, err := os.Stat(registry.NormalizeLocalPathForComparison(m.LocalPath)); os.IsNotExist(err) {
				report.Stats.Missing++
				report.Issues = append(report.Issues, Issue{
					Severity:    SeverityWarn,
					Kind:        KindMissing,
					CentralPath: m.CentralPath,
					Detail:      "local path no longer exists: " + m.LocalPath,
				})
			}
		}
	}

	if centralRoot != "" {
		report.Issues = append(report.Issues, findOrphans(centralRoot, reg)...)
	}

	return report
}

func groupByCentralPath(mappings []registry.Mapping) map[string][]registry.Mapping {
	out := make(map[string][]registry.Mapping)
	for _, m := range mappings {
		out[m.CentralPath] = append(out[m.CentralPath], m)
	}
	return out
}

func machineIDsIn(mappings []registry.Mapping) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range mappings {
		if !seen[m.MachineID] {
			seen[m.MachineID] = true
			out = append(out, m.MachineID)
		}
	}
	return out
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
