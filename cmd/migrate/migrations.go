package main

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// embeddedDir is the directory inside embeddedMigrations holding the files.
const embeddedDir = "migrations"

// Placeholders substituted into every migration before it runs.
const (
	projectPlaceholder = "{{PROJECT_ID}}"
	datasetPlaceholder = "{{DATASET_ID}}"
)

// filenamePattern matches migration files such as 0001_name.sql.
var filenamePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// parseFilename extracts the version and name of a migration file.
func parseFilename(filename string) (version int, name string, ok bool) {
	matches := filenamePattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// checksum fingerprints a migration's original content, before placeholder
// substitution, so the same file has the same checksum in every dataset.
func checksum(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// loadMigrations reads the migration files in dir of fsys, sorted by version.
// Files not matching the naming pattern are returned in skipped. Two files
// with the same version are an error.
func loadMigrations(fsys fs.FS, dir, projectID, datasetID string) (migrations []Migration, skipped []string, err error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, ok := parseFilename(entry.Name())
		if !ok {
			skipped = append(skipped, entry.Name())
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, other, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), projectPlaceholder, projectID)
		sql = strings.ReplaceAll(sql, datasetPlaceholder, datasetID)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: checksum(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, skipped, nil
}

// pendingMigrations returns the migrations not yet applied, in order.
func pendingMigrations(all []Migration, applied []AppliedMigration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, am := range applied {
		done[am.Version] = true
	}

	var pending []Migration
	for _, m := range all {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// changedMigrations returns applied migrations whose file content no longer
// matches the recorded checksum. Applied rows without a checksum are ignored.
func changedMigrations(all []Migration, applied []AppliedMigration) []Migration {
	recorded := make(map[int]string, len(applied))
	for _, am := range applied {
		if am.Checksum != "" {
			recorded[am.Version] = am.Checksum
		}
	}

	var changed []Migration
	for _, m := range all {
		if sum, ok := recorded[m.Version]; ok && sum != m.Checksum {
			changed = append(changed, m)
		}
	}
	return changed
}
