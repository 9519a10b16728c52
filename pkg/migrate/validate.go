package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Syntax one of the two engines rejects. Migrations run unchanged against
// the sqlite cache and the postgres remote.
var dialectOnly = []struct {
	re     *regexp.Regexp
	engine string
}{
	{regexp.MustCompile(`(?i)\b(BIG)?SERIAL\b`), "postgres"},
	{regexp.MustCompile(`(?i)\bJSONB\b`), "postgres"},
	{regexp.MustCompile(`::[a-zA-Z]`), "postgres"},
	{regexp.MustCompile(`(?i)\bNOW\(\)`), "postgres"},
	{regexp.MustCompile(`(?i)\bAUTOINCREMENT\b`), "sqlite"},
	{regexp.MustCompile(`(?i)\bPRAGMA\b`), "sqlite"},
}

// ValidateDir checks filenames, unique versions, goose sections and that
// each file sticks to syntax both the local and the remote engine accept.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := validateBody(name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func validateBody(name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q has its Down section before Up", name)
	}
	if strings.Count(txt, "-- +goose StatementBegin") != strings.Count(txt, "-- +goose StatementEnd") {
		return fmt.Errorf("migration %q has unbalanced StatementBegin/StatementEnd", name)
	}

	for _, line := range strings.Split(txt, "\n") {
		code := strings.TrimSpace(line)
		if strings.HasPrefix(code, "--") {
			continue
		}
		for _, rule := range dialectOnly {
			if rule.re.MatchString(code) {
				return fmt.Errorf("migration %q uses %s-only syntax: %q", name, rule.engine, code)
			}
		}
	}
	return nil
}
