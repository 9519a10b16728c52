package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// The same files run against the local sqlite cache and the remote
// postgres store, so the template only uses syntax both accept.
const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- keep to sqlite and postgres common syntax: TEXT, INTEGER, TIMESTAMP,
-- CURRENT_TIMESTAMP, IF [NOT] EXISTS
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql. The version
// is bumped past the newest file already in dir so two migrations created
// in the same second still apply in order.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(dir)
	if err != nil {
		return "", err
	}
	version := now.Format(versionLayout)
	if latest != "" && version <= latest {
		next, err := bumpVersion(latest)
		if err != nil {
			return "", err
		}
		version = next
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))
	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(migrationTemplate, safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

func latestVersion(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir %q: %w", dir, err)
	}
	latest := ""
	for _, e := range entries {
		if m := sqlFileRe.FindStringSubmatch(e.Name()); m != nil && m[1] > latest {
			latest = m[1]
		}
	}
	return latest, nil
}

func bumpVersion(version string) (string, error) {
	t, err := time.Parse(versionLayout, version)
	if err != nil {
		return "", fmt.Errorf("latest migration version %q is not a timestamp: %w", version, err)
	}
	return t.Add(time.Second).Format(versionLayout), nil
}
