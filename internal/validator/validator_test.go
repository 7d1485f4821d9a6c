package validator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minimem/minimem/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daysAgo(n int) *time.Time {
	t := time.Now().Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func TestValidate_CollisionAcrossMachinesIsErrorAndInvalid(t *testing.T) {
	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "shared/", LocalPath: "/p1", MachineID: "machine-1", LastSync: daysAgo(1)})
	reg.AddMapping(registry.Mapping{CentralPath: "shared/", LocalPath: "/p2", MachineID: "machine-2", LastSync: daysAgo(1)})

	report := Validate(reg, "machine-1", "", time.Now())

	assert.False(t, report.Valid)
	assert.Equal(t, 1, report.Stats.Collisions)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindCollision, report.Issues[0].Kind)
	assert.Equal(t, SeverityError, report.Issues[0].Severity)
}

func TestValidate_StaleAfterThirtyDays(t *testing.T) {
	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: "/p", MachineID: "machine-1", LastSync: daysAgo(31)})

	report := Validate(reg, "machine-1", "", time.Now())

	assert.True(t, report.Valid)
	assert.Equal(t, 1, report.Stats.Stale)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindStale, report.Issues[0].Kind)
	assert.Equal(t, SeverityWarn, report.Issues[0].Severity)
}

func TestValidate_ActiveWithinThirtyDays(t *testing.T) {
	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: "/p", MachineID: "machine-1", LastSync: daysAgo(1)})

	report := Validate(reg, "machine-1", "", time.Now())

	assert.True(t, report.Valid)
	assert.Equal(t, 1, report.Stats.Active)
	assert.Empty(t, report.Issues)
}

func TestValidate_MissingLocalDirOnThisMachine(t *testing.T) {
	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: "/does/not/exist", MachineID: "machine-1", LastSync: daysAgo(1)})

	report := Validate(reg, "machine-1", "", time.Now())

	assert.Equal(t, 1, report.Stats.Missing)
	var found bool
	for _, issue := range report.Issues {
		if issue.Kind == KindMissing {
			found = true
			assert.Equal(t, SeverityWarn, issue.Severity)
		}
	}
	assert.True(t, found)
}

func TestValidate_MissingLocalDirSkippedForOtherMachine(t *testing.T) {
	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: "/does/not/exist", MachineID: "machine-2", LastSync: daysAgo(1)})

	report := Validate(reg, "machine-1", "", time.Now())

	assert.Equal(t, 0, report.Stats.Missing)
}

func TestValidate_OrphanDirectoryReportedAsInfo(t *testing.T) {
	central := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(central, "tracked"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(central, "untracked"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(central, ".minimem"), 0o755))

	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "tracked/", LocalPath: "/p", MachineID: "machine-1", LastSync: daysAgo(1)})

	report := Validate(reg, "machine-1", central, time.Now())

	var orphans []Issue
	for _, issue := range report.Issues {
		if issue.Kind == KindOrphan {
			orphans = append(orphans, issue)
		}
	}
	require.Len(t, orphans, 1)
	assert.Equal(t, "untracked/", orphans[0].CentralPath)
	assert.Equal(t, SeverityInfo, orphans[0].Severity)
	assert.True(t, report.Valid)
}

func TestValidate_ValidOverallWithOnlyWarnings(t *testing.T) {
	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: "/p", MachineID: "machine-1", LastSync: daysAgo(60)})

	report := Validate(reg, "machine-1", "", time.Now())
	assert.True(t, report.Valid)
}

func TestValidate_EmptyRegistryIsValid(t *testing.T) {
	report := Validate(&registry.Registry{}, "machine-1", "", time.Now())
	assert.True(t, report.Valid)
	assert.Equal(t, 0, report.Stats.Total)
}
