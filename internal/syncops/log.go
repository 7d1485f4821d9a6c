package syncops

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const maxLogEntries = 1000

// appendLog writes result as one JSONL line to <root>/.minimem/sync.log,
// trimming the file to the most recent maxLogEntries lines. It is
// best-effort: a failure here never fails the sync operation.
func appendLog(root string, result *Result) {
	path := filepath.Join(root, ".minimem", "sync.log")

	line, err := json.Marshal(result)
	if err != nil {
		return
	}

	existing, _ := os.ReadFile(path)
	lines := splitNonEmptyLines(existing)
	lines = append(lines, string(line))
	if len(lines) > maxLogEntries {
		lines = lines[len(lines)-maxLogEntries:]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	_ = os.WriteFile(path, []byte(out), 0o644)
}

func splitNonEmptyLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, string(data[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}
