package provision

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// backupTimestamp is swappable so tests get stable backup names.
var backupTimestamp = func() string {
	return time.Now().Format("20060102-150405")
}

// rewriteFstab replaces the records for the entries' mount points and
// appends the new ones. Records for unrelated mount points are kept
// verbatim. A re-run therefore ends with exactly one record per cache
// mount point, never duplicates. The previous file is kept as a
// timestamped backup.
func rewriteFstab(path string, entries []MountEntry) error {
	managed := make(map[string]bool, len(entries))
	for _, e := range entries {
		managed[e.MountPoint] = true
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var kept []string
	for _, line := range strings.Split(string(existing), "\n") {
		if mp := fstabMountPoint(line); mp != "" && managed[mp] {
			continue
		}
		kept = append(kept, line)
	}
	// Drop trailing blank lines so appended records stay tidy.
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}

	if len(existing) > 0 {
		backup := fmt.Sprintf("%s.bak.%s", path, backupTimestamp())
		if err := os.WriteFile(backup, existing, 0o644); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}

	var sb strings.Builder
	for _, line := range kept {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for _, e := range entries {
		sb.WriteString(e.FstabLine)
		sb.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// fstabMountPoint extracts the mount point from an fstab record, or ""
// for comments and malformed lines.
func fstabMountPoint(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
